// entity/analytics.go
package entity

type DailyTraffic struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

type ContentStat struct {
	ContentRef    string `json:"contentRef"`
	Views         int    `json:"views"`
	TotalDuration int    `json:"totalDuration"`
	AvgDuration   int    `json:"avgDuration"`
}

// AggregateSnapshot is computed on demand and never stored. Truncated is set
// when the scan hit its row cap, in which case every figure undercounts.
type AggregateSnapshot struct {
	Traffic    []DailyTraffic `json:"traffic"`
	Devices    map[string]int `json:"devices"`
	TopContent []ContentStat  `json:"topContent"`
	TotalViews int            `json:"totalViews"`
	Truncated  bool           `json:"truncated"`
}

type TopPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Views       int    `json:"views"`
	AvgDuration int    `json:"avgDuration"`
}

type AdminAnalyticsResponse struct {
	Period     string         `json:"period"`
	Range      string         `json:"range"`
	Traffic    []DailyTraffic `json:"traffic"`
	Devices    map[string]int `json:"devices"`
	TopPosts   []TopPost      `json:"topPosts"`
	TotalViews int            `json:"totalViews"`
	Truncated  bool           `json:"truncated"`
}
