package domain

// Role gates which dashboards and operations a user may reach.
type Role string

const (
	RoleCitizen  Role = "citizen"
	RoleOfficial Role = "official"
	RoleAnalyst  Role = "analyst"
)

// Permission names an operation a role may perform.
type Permission string

const (
	PermViewAlerts           Permission = "view_alerts"
	PermViewShelters         Permission = "view_shelters"
	PermViewWeather          Permission = "view_weather"
	PermReportIncidents      Permission = "report_incidents"
	PermViewEvacuationRoutes Permission = "view_evacuation_routes"
	PermModerateIncidents    Permission = "moderate_incidents"
	PermManageResources      Permission = "manage_resources"
	PermAssignTasks          Permission = "assign_tasks"
	PermSendAlerts           Permission = "send_alerts"
	PermViewAnalytics        Permission = "view_analytics"
	PermViewTrends           Permission = "view_trends"
	PermViewPredictive       Permission = "view_predictive"
	PermExportReports        Permission = "export_reports"
	PermFilterData           Permission = "filter_data"
)

var rolePermissions = map[Role][]Permission{
	RoleCitizen: {
		PermViewAlerts, PermViewShelters, PermViewWeather,
		PermReportIncidents, PermViewEvacuationRoutes,
	},
	RoleOfficial: {
		PermViewAlerts, PermViewShelters, PermViewWeather,
		PermModerateIncidents, PermManageResources, PermAssignTasks,
		PermSendAlerts, PermViewAnalytics,
	},
	RoleAnalyst: {
		PermViewAlerts, PermViewAnalytics, PermViewTrends,
		PermViewPredictive, PermExportReports, PermFilterData,
	},
}

// RoleLabels maps roles to display names.
var RoleLabels = map[Role]string{
	RoleCitizen:  "Citizen",
	RoleOfficial: "Official",
	RoleAnalyst:  "Analyst",
}

// IsValidRole reports whether s names a known role.
func IsValidRole(s string) bool {
	_, ok := rolePermissions[Role(s)]
	return ok
}

// Permissions returns a copy of the permissions granted to r.
func Permissions(r Role) []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether r grants p.
func HasPermission(r Role, p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

// DashboardPath is the landing route for r.
func DashboardPath(r Role) string {
	return "/dashboard/" + string(r)
}

// User is an authenticated account as seen by the rest of the service.
// Credentials never leave the auth package.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
}
