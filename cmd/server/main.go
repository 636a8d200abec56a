package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/config"
	"github.com/nstepa/inkpost/internal/httpapi"
	"github.com/nstepa/inkpost/internal/mailer"
	"github.com/nstepa/inkpost/internal/notify"
	"github.com/nstepa/inkpost/internal/storage/postgres"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	config.LoadEnv()

	if err := postgres.InitDB(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := postgres.Migrate(postgres.GetDB()); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Without SMTP configured, outgoing mail goes to the log instead.
	var mail mailer.Mailer
	if smtpAddr := config.GetEnvDefault("SMTP_ADDR", ""); smtpAddr != "" {
		mail = mailer.NewSMTPMailer(
			smtpAddr,
			config.GetEnv("SMTP_FROM"),
			config.GetEnvDefault("SMTP_USERNAME", ""),
			config.GetEnvDefault("SMTP_PASSWORD", ""),
		)
		log.Printf("sending mail through %s", smtpAddr)
	} else {
		mail = mailer.LogMailer{}
		log.Println("SMTP_ADDR not set, mail is logged only")
	}

	notifier := notify.NewCommentNotifier()

	handlers := httpapi.NewHandlers(
		postgres.NewPostPostgresStorage(),
		postgres.NewCommentPostgresStorage(notifier, mail),
		postgres.NewUserPostgresStorage(),
		postgres.NewTaxonomyPostgresStorage(),
		postgres.NewNewsletterPostgresStorage(mail),
		notifier,
	)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    *addr,
		Handler: httpapi.WithRecover(auth.Middleware(mux)),
	}

	go func() {
		log.Printf("listening on %s", *addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	postgres.CloseDB()

	log.Println("server stopped")
}
