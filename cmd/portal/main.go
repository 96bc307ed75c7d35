package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vetcare/portal/internal/booking"
	"github.com/vetcare/portal/internal/clinic"
	"github.com/vetcare/portal/internal/config"
	"github.com/vetcare/portal/internal/pets"
	"github.com/vetcare/portal/internal/schedule"
	"github.com/vetcare/portal/internal/session"
	"github.com/vetcare/portal/internal/vetapi"
	"github.com/vetcare/portal/pkg/logging"
)

const usage = `Usage: portal <command> [flags]

Commands:
  login      sign in and store the session token
  logout     drop the stored session token
  register   create a new client account
  whoami     show the signed-in user
  book       book an appointment interactively
  schedule   show appointments (calendar or list)
  pets       list, add or remove pets
  doctors    list doctors; admins add, edit and remove them
  clients    list or edit client records (admin)
  dashboard  show appointment statistics
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	app, err := newApp(cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, vetapi.Message(err))
		os.Exit(1)
	}
}

type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	api     *vetapi.Client
	session *session.Service
	stdin   *bufio.Reader
}

func newApp(cfg *config.Config, logger *logging.Logger) (*app, error) {
	store := session.NewFileStore(cfg.TokenFile)
	api, err := vetapi.New(vetapi.Config{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.HTTPTimeout,
		TokenSource: session.TokenSourceFromStore(store),
		Logger:      logger,
		Retry: vetapi.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
	})
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		api:     api,
		session: session.NewService(store, api, logger),
		stdin:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.session.Logout()
	case "register":
		return a.cmdRegister(ctx, args)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "book":
		return a.cmdBook(ctx)
	case "schedule":
		return a.cmdSchedule(ctx, args)
	case "pets":
		return a.cmdPets(ctx, args)
	case "doctors":
		return a.cmdDoctors(ctx, args)
	case "clients":
		return a.cmdClients(ctx, args)
	case "dashboard":
		return a.cmdDashboard(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// requireUser restores the session and fails with a hint when signed out.
func (a *app) requireUser(ctx context.Context) (*clinic.User, error) {
	if err := a.session.Init(ctx); err != nil {
		return nil, err
	}
	user := a.session.CurrentUser()
	if user == nil {
		return nil, fmt.Errorf("not signed in; run `portal login` first")
	}
	return user, nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		*email = a.prompt("Email: ")
	}
	if *password == "" {
		*password = a.prompt("Password: ")
	}

	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", user.FullName, user.Role)
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> role=%s\n", user.FullName, user.Email, user.Role)
	return nil
}

func (a *app) cmdBook(ctx context.Context) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	c := booking.NewController(a.api, a.logger)
	if err := c.Load(ctx); err != nil {
		return err
	}

	doctorID, err := a.chooseOption("Doctor", booking.DoctorOptions(c.Doctors()))
	if err != nil {
		return err
	}
	c.SetDoctorID(doctorID)

	petID, err := a.chooseOption("Pet", booking.PetOptions(c.Pets()))
	if err != nil {
		return err
	}
	c.SetPetID(petID)

	c.SetDate(a.prompt("Date (YYYY-MM-DD): "))
	if err := c.SyncSlots(ctx); err != nil {
		return err
	}

	grid := booking.BuildSlotGrid(c.Slots(), c.SelectedSlot(), c.LoadingSlots())
	if grid.Empty {
		fmt.Println("No free slots on that date.")
		return nil
	}
	for i, button := range grid.Buttons {
		fmt.Printf("  [%d] %s\n", i+1, button.Label)
	}
	pick, err := strconv.Atoi(a.prompt("Slot number: "))
	if err != nil || pick < 1 || pick > len(grid.Buttons) {
		return fmt.Errorf("invalid slot choice")
	}
	c.SelectSlot(grid.Buttons[pick-1].Time)

	c.SetDescription(a.prompt("Reason (optional): "))

	if _, err := c.Submit(ctx); err != nil {
		for field, msg := range c.ValidationErrors() {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
		}
		return err
	}
	fmt.Println("Appointment booked.")
	return nil
}

func (a *app) cmdSchedule(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	asList := fs.Bool("list", false, "paginated list instead of calendar grouping")
	page := fs.Int("page", 1, "list page")
	cancelID := fs.Int("cancel", 0, "cancel the appointment with this id")
	completeID := fs.Int("complete", 0, "mark the appointment with this id completed")
	deleteID := fs.Int("delete", 0, "delete the appointment with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	view := schedule.NewView(a.api, *user, a.cfg.PageSize, a.terminalConfirmer(), a.logger)
	if *asList {
		view.SetMode(schedule.ModeList)
		view.SetPage(*page)
	} else {
		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
		view.SetRange(monthStart, monthStart.AddDate(0, 1, 0))
	}

	// actions gate on the fetched status, so load the view first
	if err := view.Refresh(ctx); err != nil {
		return err
	}

	switch {
	case *cancelID != 0:
		if err := view.Cancel(ctx, *cancelID); err != nil {
			return err
		}
	case *completeID != 0:
		if err := view.Complete(ctx, *completeID); err != nil {
			return err
		}
	case *deleteID != 0:
		if err := view.Delete(ctx, *deleteID); err != nil {
			return err
		}
	}

	if *asList {
		renderList(view)
		return nil
	}
	renderCalendar(view)
	return nil
}

func renderList(view *schedule.View) {
	for _, a := range view.Appointments() {
		fmt.Printf("#%-4d %s  %-9s %s\n", a.ID, a.DateTime.Local().Format("2006-01-02 15:04"), a.Status, a.Pet.Name)
	}
	fmt.Printf("Page %d of %d (%d appointments)\n", view.Page(), view.TotalPages(), view.Total())
}

func renderCalendar(view *schedule.View) {
	byDay := schedule.GroupByDay(view.Appointments())
	events := make(map[int]schedule.Event, len(byDay))
	for _, ev := range view.Events() {
		events[ev.ID] = ev
	}
	for _, day := range byDay {
		fmt.Println(day.Date.Format("Monday 2006-01-02"))
		for _, apt := range day.Appointments {
			ev := events[apt.ID]
			fmt.Printf("  %s-%s  [%s] %s\n",
				ev.Start.Local().Format("15:04"), ev.End.Local().Format("15:04"), ev.Color, ev.Title)
		}
	}
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		*email = a.prompt("Email: ")
	}

	user, err := a.api.Register(ctx, vetapi.RegisterRequest{
		Email:       *email,
		Password:    a.prompt("Password: "),
		FullName:    a.prompt("Full name: "),
		PhoneNumber: a.prompt("Phone (optional): "),
		Address:     a.prompt("Address (optional): "),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s; run `portal login` to sign in.\n", user.Email)
	return nil
}

func (a *app) cmdPets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pets", flag.ExitOnError)
	add := fs.Bool("add", false, "add a new pet")
	deleteID := fs.Int("delete", 0, "remove the pet with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	if *deleteID != 0 {
		if !a.terminalConfirmer().Confirm("Remove this pet and its history?") {
			return nil
		}
		if err := a.api.DeletePet(ctx, *deleteID); err != nil {
			return err
		}
		fmt.Printf("Removed pet #%d\n", *deleteID)
		return nil
	}

	if !*add {
		list, err := a.api.ListPets(ctx, 1, a.cfg.PageSize)
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Printf("#%-4d %-15s %s\n", p.ID, p.Name, p.Species)
		}
		return nil
	}

	form := pets.NewForm(a.api, a.logger)
	form.SetName(a.prompt("Name: "))
	fmt.Printf("Species (%v)\n", clinic.KnownSpecies())
	form.SetSpecies(strings.ToUpper(a.prompt("Species: ")))
	form.SetBreed(a.prompt("Breed (optional): "))
	form.SetBirthMonth(a.prompt("Birth month YYYY-MM (optional): "))

	if err := form.Submit(ctx); err != nil {
		for field, msg := range form.Errors() {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
		}
		return err
	}
	fmt.Printf("Added %s (#%d)\n", form.Saved().Name, form.Saved().ID)
	return nil
}

func (a *app) cmdDoctors(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("doctors", flag.ExitOnError)
	add := fs.Bool("add", false, "add a doctor (admin)")
	editID := fs.Int("edit", 0, "edit the doctor with this id (admin)")
	deleteID := fs.Int("delete", 0, "remove the doctor with this id (admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if (*add || *editID != 0 || *deleteID != 0) && user.Role != clinic.RoleAdmin {
		return fmt.Errorf("managing doctors is limited to admin accounts")
	}

	switch {
	case *add:
		payload := a.promptDoctor()
		payload.Email = a.prompt("Email: ")
		payload.Password = a.prompt("Password: ")
		doctor, err := a.api.CreateDoctor(ctx, payload)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (#%d)\n", doctor.FullName, doctor.ID)
	case *editID != 0:
		doctor, err := a.api.UpdateDoctor(ctx, *editID, a.promptDoctor())
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (#%d)\n", doctor.FullName, doctor.ID)
	case *deleteID != 0:
		if !a.terminalConfirmer().Confirm("Remove this doctor?") {
			return nil
		}
		if err := a.api.DeleteDoctor(ctx, *deleteID); err != nil {
			return err
		}
		fmt.Printf("Removed doctor #%d\n", *deleteID)
	default:
		doctors, err := a.api.ListDoctors(ctx)
		if err != nil {
			return err
		}
		for _, d := range doctors {
			line := d.FullName
			if spec := d.Specialization.Humanize(); spec != "" {
				line += " (" + spec + ")"
			}
			fmt.Printf("#%-4d %s\n", d.ID, line)
		}
	}
	return nil
}

func (a *app) promptDoctor() vetapi.DoctorPayload {
	payload := vetapi.DoctorPayload{
		FullName:       a.prompt("Full name: "),
		Specialization: strings.ToUpper(a.prompt("Specialization: ")),
		PhoneNumber:    a.prompt("Phone (optional): "),
		Bio:            a.prompt("Bio (optional): "),
	}
	if years, err := strconv.Atoi(a.prompt("Experience years: ")); err == nil {
		payload.ExperienceYears = years
	}
	if price, err := strconv.ParseFloat(a.prompt("Visit price: "), 64); err == nil {
		payload.Price = price
	}
	return payload
}

func (a *app) cmdClients(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clients", flag.ExitOnError)
	editID := fs.Int("edit", 0, "edit the client with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if user.Role != clinic.RoleAdmin {
		return fmt.Errorf("client records are limited to admin accounts")
	}

	if *editID != 0 {
		updated, err := a.api.UpdateClient(ctx, *editID, vetapi.ClientPayload{
			FullName:    a.prompt("Full name: "),
			PhoneNumber: a.prompt("Phone: "),
			Address:     a.prompt("Address (optional): "),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (#%d)\n", updated.FullName, updated.ID)
		return nil
	}

	clients, err := a.api.ListClients(ctx)
	if err != nil {
		return err
	}
	for _, c := range clients {
		fmt.Printf("#%-4d %-20s %s\n", c.ID, c.FullName, c.PhoneNumber)
	}
	return nil
}

func (a *app) cmdDashboard(ctx context.Context) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if user.Role != clinic.RoleAdmin && user.Role != clinic.RoleDoctor {
		return fmt.Errorf("dashboard is limited to staff accounts")
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	page, err := a.api.ListAppointments(ctx, vetapi.ListAppointmentsParams{
		StartDate: monthStart,
		EndDate:   monthStart.AddDate(0, 1, 0),
	})
	if err != nil {
		return err
	}

	stats := clinic.ComputeStats(page.Items, now)
	fmt.Printf("This month: %d total, %d planned, %d completed, %d cancelled\n",
		stats.Total, stats.Planned, stats.Completed, stats.Cancelled)
	fmt.Printf("Still to come today: %d\n", stats.UpcomingToday)
	return nil
}

// terminalConfirmer asks y/n on stdin before destructive actions.
func (a *app) terminalConfirmer() schedule.Confirmer {
	return schedule.ConfirmFunc(func(prompt string) bool {
		answer := strings.ToLower(a.prompt(prompt + " [y/N] "))
		return answer == "y" || answer == "yes"
	})
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	line, _ := a.stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

// chooseOption prints a numbered dropdown and returns the chosen id.
func (a *app) chooseOption(label string, options []booking.Option) (int, error) {
	fmt.Println(label + ":")
	for i, opt := range options[1:] {
		fmt.Printf("  [%d] %s\n", i+1, opt.Label)
	}
	pick, err := strconv.Atoi(a.prompt("> "))
	if err != nil || pick < 1 || pick >= len(options) {
		return 0, fmt.Errorf("invalid %s choice", strings.ToLower(label))
	}
	return strconv.Atoi(options[pick].Value)
}
