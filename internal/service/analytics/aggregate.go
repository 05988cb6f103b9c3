package service

import (
	"math"
	"sort"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/pkg/utils"
)

const topContentLimit = 10

var knownDevices = map[string]bool{
	entity.DeviceDesktop: true,
	entity.DeviceMobile:  true,
	entity.DeviceTablet:  true,
}

// Summarize rolls visits, oldest first, into a snapshot. It never mutates
// visits. maxRows is the cap the rows were fetched with; hitting it marks the
// snapshot as truncated.
func Summarize(visits []entity.Visit, maxRows int) *entity.AggregateSnapshot {
	snapshot := &entity.AggregateSnapshot{
		Traffic:    []entity.DailyTraffic{},
		Devices:    map[string]int{},
		TopContent: []entity.ContentStat{},
		TotalViews: len(visits),
		Truncated:  maxRows > 0 && len(visits) >= maxRows,
	}

	perDay := map[string]int{}
	var days []string

	perContent := map[string]*entity.ContentStat{}
	var order []string

	for _, v := range visits {
		day := utils.DateUTC(v.CreatedAt)
		if _, ok := perDay[day]; !ok {
			days = append(days, day)
		}
		perDay[day]++

		device := v.Device
		if !knownDevices[device] {
			device = entity.DeviceOther
		}
		snapshot.Devices[device]++

		if v.ContentRef == nil {
			continue
		}
		stat, ok := perContent[*v.ContentRef]
		if !ok {
			stat = &entity.ContentStat{ContentRef: *v.ContentRef}
			perContent[*v.ContentRef] = stat
			order = append(order, *v.ContentRef)
		}
		stat.Views++
		stat.TotalDuration += v.DurationSeconds
	}

	sort.Strings(days)
	for _, day := range days {
		snapshot.Traffic = append(snapshot.Traffic, entity.DailyTraffic{Date: day, Views: perDay[day]})
	}

	for _, ref := range order {
		stat := perContent[ref]
		if stat.Views > 0 {
			stat.AvgDuration = int(math.Round(float64(stat.TotalDuration) / float64(stat.Views)))
		}
		snapshot.TopContent = append(snapshot.TopContent, *stat)
	}
	sort.SliceStable(snapshot.TopContent, func(i, j int) bool {
		return snapshot.TopContent[i].Views > snapshot.TopContent[j].Views
	})
	if len(snapshot.TopContent) > topContentLimit {
		snapshot.TopContent = snapshot.TopContent[:topContentLimit]
	}

	return snapshot
}
