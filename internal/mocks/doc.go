// Package mocks holds hand-written test doubles for the service and auth
// interfaces consumed by the HTTP layer.
//
// Each mock has one function field per method. A nil field falls back to a
// fixed default (DefaultError or a canned value such as Reading) so a test only sets
// what it cares about:
//
//	readings := &mocks.MockReadingService{
//	    GetReadingFn: func(ctx context.Context, userID, id uuid.UUID) (*domain.Reading, error) {
//	        return nil, store.ErrReadingNotFound
//	    },
//	}
package mocks
