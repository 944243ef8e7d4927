// Package domain contains the core entities of a tarot reading: catalog cards,
// drawn and selected cards, spreads, the reading session aggregate and its
// interpretation, plus persisted readings and journal entries. It is
// independent of storage, transport and timing concerns.
package domain
