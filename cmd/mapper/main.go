package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/client"
	"github.com/shenikar/near_miss_mapper/internal/feed"
	"github.com/shenikar/near_miss_mapper/internal/mapview"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/shenikar/near_miss_mapper/internal/session"
	"github.com/shenikar/near_miss_mapper/pkg/logger"
)

// Консольный клиент карты near-miss событий.
// Действия: map (по умолчанию), report, delete, signup, login, logout, whoami.
func main() {
	apiURL := flag.String("api", getenvDefault("API_URL", client.DefaultBaseURL), "base URL of the backend API")
	stateDir := flag.String("state", getenvDefault("STATE_DIR", defaultStateDir()), "directory for persisted session state")
	logLevel := flag.String("log-level", getenvDefault("LOG_LEVEL", "warn"), "log level")

	// Координаты текущей позиции; пустые значения имитируют отказ геолокации
	latStr := flag.String("lat", "", "current latitude")
	lngStr := flag.String("lng", "", "current longitude")

	// Учетные данные для signup/login
	email := flag.String("email", "", "email or phone number")
	password := flag.String("password", "", "password")
	role := flag.String("role", "user", "role for signup (user or admin)")

	// Поля формы отчета
	description := flag.String("description", "", "incident description")
	incidentType := flag.String("type", "", "incident type")
	severity := flag.String("severity", "low", "severity: low, medium, high or critical")
	reportedBy := flag.String("reported-by", "", "reporter name or ID")

	eventID := flag.String("event-id", "", "event id for delete")

	flag.Parse()

	action := flag.Arg(0)
	if action == "" {
		action = "map"
	}

	log := logger.New(*logLevel)

	storage, err := session.NewFileStorage(*stateDir)
	if err != nil {
		log.Fatalf("Failed to open state dir: %v", err)
	}
	store, err := session.NewStore(storage)
	if err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}

	api := client.New(*apiURL, store, log)
	ctx := context.Background()

	switch action {
	case "signup":
		user, err := api.Signup(ctx, *email, *password, *role)
		if err != nil {
			// На signup сообщение сервера показывается как есть, если оно пришло
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Detail != "" {
				fmt.Fprintln(os.Stderr, apiErr.Detail)
			} else {
				fmt.Fprintln(os.Stderr, "Failed to sign up")
			}
			os.Exit(1)
		}
		fmt.Printf("Account created for %s. Please sign in.\n", user.EmailOrPhone)

	case "login":
		token, err := api.Login(ctx, *email, *password)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Invalid credentials")
			os.Exit(1)
		}
		if err := store.SetAuth(session.Session{Token: token.AccessToken, Role: token.Role}); err != nil {
			log.Fatalf("Failed to persist session: %v", err)
		}
		fmt.Printf("Signed in with role %q.\n", token.Role)

	case "logout":
		if err := store.Logout(); err != nil {
			log.Fatalf("Failed to clear session: %v", err)
		}
		fmt.Println("Signed out.")

	case "whoami":
		sess := store.Session()
		if !sess.LoggedIn() {
			fmt.Println("Not signed in.")
			return
		}
		fmt.Printf("Signed in, role %q.\n", sess.Role)

	case "map":
		ctrl := feed.NewController(api, geolocatorFromFlags(*latStr, *lngStr), log)
		ctrl.Start(ctx)
		mapview.Build(ctrl.State()).Render(os.Stdout)

	case "report":
		ctrl := feed.NewController(api, geolocatorFromFlags(*latStr, *lngStr), log)
		ctrl.Start(ctx)

		form := feed.NewReportForm()
		form.Description = *description
		form.IncidentType = *incidentType
		form.Severity = models.Severity(*severity)
		form.ReportedBy = *reportedBy

		created, err := ctrl.SubmitReport(ctx, form)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to submit report: %v\n", err)
			os.Exit(1)
		}
		if created == nil {
			fmt.Fprintln(os.Stderr, "No position set, report skipped.")
			os.Exit(1)
		}
		fmt.Printf("Reported %q (id %s).\n", created.IncidentType, created.ID)
		mapview.Build(ctrl.State()).Render(os.Stdout)

	case "delete":
		id, err := uuid.Parse(*eventID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "A valid -event-id is required.")
			os.Exit(1)
		}
		ctrl := feed.NewController(api, geolocatorFromFlags(*latStr, *lngStr), log)
		if err := ctrl.DeleteEvent(ctx, id); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to remove event.")
			os.Exit(1)
		}
		fmt.Printf("Removed event %s.\n", id)

	default:
		fmt.Fprintf(os.Stderr, "Unknown action %q. Use: map, report, delete, signup, login, logout, whoami.\n", action)
		os.Exit(2)
	}
}

// geolocatorFromFlags строит геолокатор из флагов координат.
// Пустые или некорректные координаты дают отказ геолокации, контроллер
// подставит позицию по умолчанию.
func geolocatorFromFlags(latStr, lngStr string) feed.Geolocator {
	return feed.GeolocatorFunc(func(ctx context.Context) (feed.Position, error) {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			return feed.Position{}, fmt.Errorf("no location provided")
		}
		return feed.Position{Latitude: lat, Longitude: lng}, nil
	})
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".near_miss_mapper"
	}
	return filepath.Join(dir, "near_miss_mapper")
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
