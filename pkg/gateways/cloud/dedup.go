package cloud

import (
	"sync"

	bloomFilter "github.com/bits-and-blooms/bloom/v3"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
)

// duplicationFilter remembers the ids of inbound messages already handled,
// so broker redeliveries are not handled twice.
type duplicationFilter struct {
	mu                           sync.Mutex
	filter                       *bloomFilter.BloomFilter
	capacity                     uint
	maximumPercentageFilterUsage float32
}

func newDuplicationFilter(conf entities.DuplicationFilterConfig) *duplicationFilter {
	return &duplicationFilter{
		filter:                       bloomFilter.NewWithEstimates(conf.Capacity, conf.Probability),
		capacity:                     conf.Capacity,
		maximumPercentageFilterUsage: conf.ResetPercent,
	}
}

// seen reports whether id was handled before and records it otherwise.
// Messages without an id are never considered duplicates.
func (d *duplicationFilter) seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.filter.TestString(id) {
		return true
	}
	d.resetDuplicationFilter()
	d.filter.AddString(id)
	return false
}

func (d *duplicationFilter) resetDuplicationFilter() {
	approximatedFilterSize := d.filter.ApproximatedSize()
	currentPercentageFilterUsage := (float32(approximatedFilterSize) / float32(d.capacity)) * 100
	if currentPercentageFilterUsage >= d.maximumPercentageFilterUsage {
		d.filter.ClearAll()
	}
}
