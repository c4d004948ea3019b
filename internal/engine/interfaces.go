package engine

import (
	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
)

// Store defines the persistence the review engine depends on.
type Store interface {
	service.TransactionStore
	service.PreferencesStore
}

// RangeTracker defines the contract for checked range transitions.
type RangeTracker interface {
	Extend(current model.CheckedDateRange, window model.DateRange) (model.CheckedDateRange, error)
	RecommendNext(current model.CheckedDateRange, data *model.DateRange) *model.DateRange
	Reset() model.CheckedDateRange
}
