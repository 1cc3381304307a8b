package gate

import goSession "github.com/MrEthical07/goSession"

// BookingRoutes returns the frozen route table of the booking client.
func BookingRoutes() *Table {
	t := NewTable()
	admin := []goSession.Role{goSession.RoleAdmin}

	must(t.Register("/business-insights", goSession.RoleHotelOwner, goSession.RoleAdmin))
	for _, p := range []string{
		"/admin/dashboard",
		"/admin/users",
		"/admin/hotels",
		"/admin/analytics",
		"/admin/activity-logs",
	} {
		must(t.Register(p, admin...))
	}
	must(t.Register("/hotel/:hotelId/booking"))
	must(t.Register("/add-hotel"))
	must(t.Register("/edit-hotel/:hotelId"))

	t.Freeze()
	return t
}

// BusinessInsightsRoles are the roles that see the Business Insights nav entry.
var BusinessInsightsRoles = []goSession.Role{goSession.RoleHotelOwner, goSession.RoleAdmin}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
