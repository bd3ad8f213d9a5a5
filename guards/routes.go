package guards

// Client route paths
const (
	// Public (guest only)
	RouteLogin      = "/login"
	RouteAdminLogin = "/admin/login"

	// Authenticated
	RouteHome        = "/"
	RouteDashboard   = "/dashboard"
	RouteEmployees   = "/employees"
	RouteDepartments = "/departments"
	RoutePositions   = "/positions"
	RouteAttendance  = "/attendance"
	RouteLeave       = "/leave"
	RoutePayroll     = "/payroll"
	RouteProfile     = "/profile"
	RouteSettings    = "/settings"

	// Payslips
	RoutePayslip       = "/payslip"        // needs a payment grant
	RoutePayslipVerify = "/payslip/verify" // OTP challenge, skipped when a grant exists
)
