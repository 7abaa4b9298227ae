package config

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
)

var (
	RunAddress  string
	DatabaseURI string
	SiteBaseURL string
	LogLevel    string
	JWTSecret   string
	AdminToken  string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
)

func ParseFlags() {
	godotenv.Load()

	flag.StringVar(&RunAddress, "a", ":8080", "address to run server")
	flag.StringVar(&DatabaseURI, "d", "", "database uri")
	flag.StringVar(&SiteBaseURL, "b", "https://creatorly.app", "site base url for referral redirects")
	flag.StringVar(&LogLevel, "l", "info", "log level")
	flag.StringVar(&JWTSecret, "s", "", "jwt signing secret")
	flag.StringVar(&AdminToken, "t", "", "admin api token")
	flag.Parse()

	if envRunAddr := os.Getenv("RUN_ADDRESS"); envRunAddr != "" {
		RunAddress = envRunAddr
	}
	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		DatabaseURI = databaseURI
	}
	if baseURL := os.Getenv("SITE_BASE_URL"); baseURL != "" {
		SiteBaseURL = baseURL
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		JWTSecret = jwtSecret
	}
	if adminToken := os.Getenv("ADMIN_TOKEN"); adminToken != "" {
		AdminToken = adminToken
	}

	SMTPHost = os.Getenv("SMTP_HOST")
	SMTPPort = os.Getenv("SMTP_PORT")
	SMTPUser = os.Getenv("SMTP_USER")
	SMTPPassword = os.Getenv("SMTP_PASSWORD")
	MailFrom = os.Getenv("MAIL_FROM")
}
