// Package dashboard serves the static data behind the schedule and analysis views.
package dashboard

type Vehicle struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"` // percent loaded
	Status   string `json:"status"`
	Image    string `json:"image"`
}

type Venue struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Difficulty int    `json:"difficulty"` // 1-10
	Notes      string `json:"notes"`
}

type Order struct {
	ID     string `json:"id"`
	Client string `json:"client"`
	Venue  string `json:"venue"`
	Status string `json:"status"`
	Items  int    `json:"items"`
}

type DayStat struct {
	Name string `json:"name"`
	Cost int    `json:"cost"`
	Load int    `json:"load"`
}

type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Schedule struct {
	Vehicles     []Vehicle `json:"vehicles"`
	Venues       []Venue   `json:"venues"`
	RecentOrders []Order   `json:"recent_orders"`
}

type Analysis struct {
	KPIs   []KPI     `json:"kpis"`
	Series []DayStat `json:"series"`
}

var vehicles = []Vehicle{
	{ID: "v1", Name: "Unit 104", Type: "Truck", Capacity: 85, Status: "Active", Image: "https://picsum.photos/200/150"},
	{ID: "v2", Name: "Unit 202", Type: "Truck", Capacity: 12, Status: "En Route", Image: "https://picsum.photos/201/150"},
	{ID: "v3", Name: "Sprinter A", Type: "Van", Capacity: 0, Status: "Active", Image: "https://picsum.photos/202/150"},
	{ID: "v4", Name: "Unit 105", Type: "Truck", Capacity: 100, Status: "Maintenance", Image: "https://picsum.photos/203/150"},
}

var venues = []Venue{
	{ID: "vn1", Name: "The Grand Hotel", Difficulty: 8, Notes: "Narrow loading dock, strict timing."},
	{ID: "vn2", Name: "Riverside Pavilion", Difficulty: 2, Notes: "Direct ramp access, very easy."},
	{ID: "vn3", Name: "Downtown Loft", Difficulty: 9, Notes: "Freight elevator only, 2hr window."},
}

var recentOrders = []Order{
	{ID: "o1", Client: "Smith Wedding", Venue: "The Grand Hotel", Status: "Routed", Items: 145},
	{ID: "o2", Client: "Tech Corp Gala", Venue: "Riverside Pavilion", Status: "Pending", Items: 320},
	{ID: "o3", Client: "Charity Auction", Venue: "Downtown Loft", Status: "Pending", Items: 50},
}

var weekly = []DayStat{
	{Name: "Mon", Cost: 2400, Load: 40},
	{Name: "Tue", Cost: 1398, Load: 30},
	{Name: "Wed", Cost: 9800, Load: 85},
	{Name: "Thu", Cost: 3908, Load: 50},
	{Name: "Fri", Cost: 4800, Load: 60},
	{Name: "Sat", Cost: 3800, Load: 45},
	{Name: "Sun", Cost: 4300, Load: 55},
}

var kpis = []KPI{
	{Label: "Weekly Savings", Value: "$12,405"},
	{Label: "Route Efficiency", Value: "94.2%"},
	{Label: "Active Fleet", Value: "18/20"},
}

// CurrentSchedule returns a fresh copy of the schedule fixtures.
func CurrentSchedule() Schedule {
	return Schedule{
		Vehicles:     append([]Vehicle(nil), vehicles...),
		Venues:       append([]Venue(nil), venues...),
		RecentOrders: append([]Order(nil), recentOrders...),
	}
}

// WeeklyAnalysis returns a fresh copy of the analysis fixtures.
func WeeklyAnalysis() Analysis {
	return Analysis{
		KPIs:   append([]KPI(nil), kpis...),
		Series: append([]DayStat(nil), weekly...),
	}
}

// VenueByName finds a fixture venue; the schedule view uses it to show difficulty
// next to an order.
func VenueByName(name string) (Venue, bool) {
	for _, v := range venues {
		if v.Name == name {
			return v, true
		}
	}
	return Venue{}, false
}
