package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-hr-portal/guards"
	"github.com/jrsteele09/go-hr-portal/hrapi"
	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/jrsteele09/go-hr-portal/preferences"
	"github.com/jrsteele09/go-hr-portal/users"
)

type command struct {
	name  string
	route string // client route whose guard must allow the command
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"login", guards.RouteLogin, "log in: -email <email> -password <password> [-admin]", cmdLogin},
	{"logout", "", "forget the session", cmdLogout},
	{"whoami", guards.RouteProfile, "show the logged in principal", cmdWhoami},
	{"employees", guards.RouteEmployees, "list employees (admin): [-page n] [-limit n] [-search s]", cmdEmployees},
	{"employee", guards.RouteEmployees, "show one employee, or update it (admin): -id id [-name s] [-salary n] [-status active|inactive] [-department id] [-position id]", cmdEmployee},
	{"departments", guards.RouteDepartments, "list departments", cmdDepartments},
	{"positions", guards.RoutePositions, "list positions", cmdPositions},
	{"checkin", guards.RouteAttendance, "record today's check-in", cmdCheckIn},
	{"checkout", guards.RouteAttendance, "record today's check-out", cmdCheckOut},
	{"attendance", guards.RouteAttendance, "list attendance: [-month YYYY-MM] [-report]", cmdAttendance},
	{"leave", guards.RouteLeave, "leave list [-status s] | request -type t -from d -to d [-reason r] | review -id id -status s [-note n]", cmdLeave},
	{"payroll", guards.RoutePayroll, "payroll rows (admin): [-month YYYY-MM]", cmdPayroll},
	{"otp", guards.RoutePayslipVerify, "unlock payslips: request | verify -code <code>", cmdOTP},
	{"payslips", guards.RoutePayslip, "list payslips or show one: [-id id]", cmdPayslips},
	{"lock", guards.RoutePayslip, "drop payslip access", cmdLock},
	{"prefs", guards.RouteSettings, "show or change preferences: [-theme light|dark] [-toggle-sidebar]", cmdPrefs},
}

var commandsByName = func() map[string]command {
	m := make(map[string]command, len(commands))
	for _, c := range commands {
		m[c.name] = c
	}
	return m
}()

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	admin := fs.Bool("admin", false, "use the admin portal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login needs -email and -password")
	}

	role := users.RoleEmployee
	if *admin {
		role = users.RoleAdmin
	}
	res, err := a.hr.Login(ctx, role, hrapi.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if err := a.session.Login(res.User, res.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", a.paint(Cyan, res.User.Name), res.User.Role)
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	a.session.Logout()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	me, err := a.hr.Me(ctx)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.row("Name", me.Name)
	w.row("Email", me.Email)
	w.row("Role", string(me.Role))
	if me.EmployeeID != "" {
		w.row("Employee", me.EmployeeID)
	}
	if a.payment.HasGrant() {
		w.row("Payslips", a.paint(Green, "unlocked"))
	} else {
		w.row("Payslips", a.paint(Gray, "locked"))
	}
	return w.flush()
}

func cmdEmployees(ctx context.Context, a *app, args []string) error {
	fs := newFlags("employees")
	var opts hrapi.ListOptions
	fs.IntVar(&opts.Page, "page", 1, "page number")
	fs.IntVar(&opts.Limit, "limit", 20, "page size")
	fs.StringVar(&opts.Search, "search", "", "name, email or code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list := a.hr.ListEmployees
	if opts.Search != "" {
		list = a.hr.SearchEmployees
	}
	page, err := list(ctx, opts)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.header("ID", "CODE", "NAME", "EMAIL", "SALARY", "STATUS")
	for _, e := range page.Items {
		w.row(e.ID, e.EmployeeCode, e.Name, e.Email, money(e.BaseSalary), a.status(string(e.Status)))
	}
	if err := w.flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", a.paint(Gray, fmt.Sprintf("page %d, %d of %d", page.Page, len(page.Items), page.Total)))
	return nil
}

func cmdEmployee(ctx context.Context, a *app, args []string) error {
	fs := newFlags("employee")
	id := fs.String("id", "", "employee id")
	var upd hrapi.EmployeeUpdate
	changed := false
	optional := func(dst **string) func(string) error {
		return func(v string) error {
			*dst = utils.Ptr(v)
			changed = true
			return nil
		}
	}
	fs.Func("name", "new name", optional(&upd.Name))
	fs.Func("department", "department id", optional(&upd.DepartmentID))
	fs.Func("position", "position id", optional(&upd.PositionID))
	fs.Func("status", "active or inactive", func(v string) error {
		upd.Status = utils.Ptr(hrapi.EmployeeStatus(v))
		changed = true
		return nil
	})
	fs.Func("salary", "base salary", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		upd.BaseSalary = utils.Ptr(f)
		changed = true
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("employee needs -id")
	}

	var e *hrapi.Employee
	var err error
	if changed {
		e, err = a.hr.UpdateEmployee(ctx, *id, upd)
	} else {
		e, err = a.hr.GetEmployee(ctx, *id)
	}
	if err != nil {
		return err
	}

	w := newTable(a.out)
	w.row("Code", e.EmployeeCode)
	w.row("Name", e.Name)
	w.row("Email", e.Email)
	w.row("Department", e.DepartmentID)
	w.row("Position", e.PositionID)
	w.row("Salary", money(e.BaseSalary))
	w.row("Status", a.status(string(e.Status)))
	return w.flush()
}

func cmdDepartments(ctx context.Context, a *app, _ []string) error {
	depts, err := a.hr.ListDepartments(ctx)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.header("ID", "NAME", "DESCRIPTION")
	for _, d := range depts {
		w.row(d.ID, d.Name, d.Description)
	}
	return w.flush()
}

func cmdPositions(ctx context.Context, a *app, _ []string) error {
	positions, err := a.hr.ListPositions(ctx)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.header("ID", "TITLE", "DEPARTMENT", "BASE SALARY")
	for _, p := range positions {
		w.row(p.ID, p.Title, p.DepartmentID, money(p.BaseSalary))
	}
	return w.flush()
}

func cmdCheckIn(ctx context.Context, a *app, _ []string) error {
	rec, err := a.hr.CheckIn(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Checked in at %s (%s)\n", clock(rec.CheckIn), a.status(string(rec.Status)))
	return nil
}

func cmdCheckOut(ctx context.Context, a *app, _ []string) error {
	rec, err := a.hr.CheckOut(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Checked out at %s\n", clock(rec.CheckOut))
	return nil
}

func cmdAttendance(ctx context.Context, a *app, args []string) error {
	fs := newFlags("attendance")
	month := fs.String("month", "", "YYYY-MM")
	employee := fs.String("employee", "", "employee id (admin)")
	report := fs.Bool("report", false, "monthly summary per employee (admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := newTable(a.out)
	if *report {
		rows, err := a.hr.AttendanceReport(ctx, *month)
		if err != nil {
			return err
		}
		w.header("EMPLOYEE", "PRESENT", "LATE", "ABSENT", "HOURS")
		for _, r := range rows {
			w.row(r.EmployeeID, fmt.Sprint(r.PresentDays), fmt.Sprint(r.LateDays), fmt.Sprint(r.AbsentDays), fmt.Sprintf("%.2f", r.TotalHours))
		}
		return w.flush()
	}

	records, err := a.hr.ListAttendance(ctx, *month, *employee)
	if err != nil {
		return err
	}
	w.header("DATE", "IN", "OUT", "STATUS")
	for _, r := range records {
		w.row(r.Date, clock(r.CheckIn), clock(r.CheckOut), a.status(string(r.Status)))
	}
	return w.flush()
}

func cmdLeave(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("leave needs a subcommand: list, request or review")
	}
	sub, args := args[0], args[1:]
	fs := newFlags("leave " + sub)

	switch sub {
	case "list":
		status := fs.String("status", "", "pending, approved or rejected")
		if err := fs.Parse(args); err != nil {
			return err
		}
		leaves, err := a.hr.ListLeaves(ctx, hrapi.LeaveStatus(*status))
		if err != nil {
			return err
		}
		w := newTable(a.out)
		w.header("ID", "EMPLOYEE", "TYPE", "FROM", "TO", "STATUS")
		for _, l := range leaves {
			w.row(l.ID, l.EmployeeID, string(l.Type), l.StartDate, l.EndDate, a.status(string(l.Status)))
		}
		return w.flush()

	case "request":
		var req hrapi.LeaveRequest
		fs.Func("type", "annual, sick or unpaid", func(s string) error { req.Type = hrapi.LeaveType(s); return nil })
		fs.StringVar(&req.StartDate, "from", "", "first day, YYYY-MM-DD")
		fs.StringVar(&req.EndDate, "to", "", "last day, YYYY-MM-DD")
		fs.StringVar(&req.Reason, "reason", "", "optional reason")
		if err := fs.Parse(args); err != nil {
			return err
		}
		l, err := a.hr.RequestLeave(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Leave requested (%s): %s\n", l.ID, a.status(string(l.Status)))
		return nil

	case "review":
		id := fs.String("id", "", "leave request id")
		var upd hrapi.LeaveStatusUpdate
		fs.Func("status", "approved or rejected", func(s string) error { upd.Status = hrapi.LeaveStatus(s); return nil })
		fs.StringVar(&upd.Note, "note", "", "optional note")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("leave review needs -id")
		}
		l, err := a.hr.ReviewLeave(ctx, *id, upd)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Leave %s is now %s\n", l.ID, a.status(string(l.Status)))
		return nil
	}
	return fmt.Errorf("unknown leave subcommand %q", sub)
}

func cmdPayroll(ctx context.Context, a *app, args []string) error {
	fs := newFlags("payroll")
	month := fs.String("month", "", "YYYY-MM, defaults to the current month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rows, err := a.hr.ListPayroll(ctx, *month)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.header("EMPLOYEE", "MONTH", "BASE", "ALLOWANCES", "DEDUCTIONS", "NET")
	for _, r := range rows {
		w.row(r.EmployeeName, r.Month, money(r.BaseSalary), money(r.Allowances), money(r.Deductions), money(r.NetPay))
	}
	return w.flush()
}

func cmdOTP(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("otp needs a subcommand: request or verify")
	}
	switch args[0] {
	case "request":
		ch, err := a.hr.RequestPayslipOTP(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "A passcode was sent to %s, valid until %s\n", ch.Destination, ch.ExpiresAt.Local().Format("15:04"))
		return nil

	case "verify":
		fs := newFlags("otp verify")
		code := fs.String("code", "", "the passcode you received")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		access, err := a.hr.VerifyPayslipOTP(ctx, strings.TrimSpace(*code))
		if err != nil {
			return err
		}
		if err := a.payment.SetAccessToken(access.PaymentAccessToken); err != nil {
			return err
		}
		fmt.Fprintln(a.out, a.paint(GreenInverse, " Payslips unlocked "))
		return nil
	}
	return fmt.Errorf("unknown otp subcommand %q", args[0])
}

func cmdPayslips(ctx context.Context, a *app, args []string) error {
	fs := newFlags("payslips")
	id := fs.String("id", "", "show a single payslip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := newTable(a.out)
	if *id != "" {
		p, err := a.hr.GetPayslip(ctx, a.payment, *id)
		if err != nil {
			return err
		}
		w.row("Month", p.Month)
		w.row("Base salary", money(p.BaseSalary))
		w.row("Allowances", money(p.Allowances))
		w.row("Deductions", money(p.Deductions))
		w.row("Net pay", a.paint(Green, money(p.NetPay)))
		w.row("Issued", p.IssuedAt.Format(hrapi.DateLayout))
		return w.flush()
	}

	slips, err := a.hr.ListPayslips(ctx, a.payment)
	if err != nil {
		return err
	}
	w.header("ID", "MONTH", "NET PAY")
	for _, p := range slips {
		w.row(p.ID, p.Month, money(p.NetPay))
	}
	return w.flush()
}

func cmdLock(_ context.Context, a *app, _ []string) error {
	a.payment.ClearAccessToken()
	fmt.Fprintln(a.out, "Payslips locked")
	return nil
}

func cmdPrefs(_ context.Context, a *app, args []string) error {
	fs := newFlags("prefs")
	theme := fs.String("theme", "", "light or dark")
	toggle := fs.Bool("toggle-sidebar", false, "flip the sidebar state")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *theme != "" {
		if err := a.prefs.SetTheme(preferences.Theme(*theme)); err != nil {
			return err
		}
	}
	if *toggle {
		if _, err := a.prefs.ToggleSidebar(); err != nil {
			return err
		}
	}

	p := a.prefs.Get()
	w := newTable(a.out)
	w.row("Theme", string(p.Theme))
	w.row("Sidebar", map[bool]string{true: "open", false: "closed"}[p.SidebarOpen])
	return w.flush()
}
