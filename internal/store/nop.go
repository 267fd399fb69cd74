package store

import (
	"context"
	"time"

	"github.com/Irehund/JobTrack/internal/model"
)

// NopStore persists nothing. Commute lookups always miss and every listing
// looks new, which suits dry runs.
type NopStore struct{}

var (
	_ model.CommuteStore = (*NopStore)(nil)
	_ model.SeenStore    = (*NopStore)(nil)
)

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Get(context.Context, model.CommuteKey) (*int, bool, error) { return nil, false, nil }
func (s *NopStore) Put(context.Context, model.CommuteKey, *int) error         { return nil }
func (s *NopStore) Clear(context.Context) error                               { return nil }
func (s *NopStore) HasSeen(string) (bool, error)                              { return false, nil }
func (s *NopStore) MarkSeen(string) error                                     { return nil }
func (s *NopStore) Cleanup(time.Duration) error                               { return nil }
func (s *NopStore) IsEmpty() (bool, error)                                    { return false, nil }
func (s *NopStore) Close() error                                              { return nil }
