// cmd/server/main.go
package main

import (
    "context"
    "net/http"

    "github.com/go-chi/chi/v5"
    "github.com/sirupsen/logrus"
    "github.com/streadway/amqp"

    "github.com/chillspider/jetx-marketing/internal/config"
    "github.com/chillspider/jetx-marketing/internal/controller"
    "github.com/chillspider/jetx-marketing/internal/db"
    "github.com/chillspider/jetx-marketing/internal/gateway"
    "github.com/chillspider/jetx-marketing/internal/queue"
    "github.com/chillspider/jetx-marketing/internal/repository"
    "github.com/chillspider/jetx-marketing/internal/scheduler"
    "github.com/chillspider/jetx-marketing/internal/service"
)

func main() {
    cfg := config.Load()
    logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

    conn, err := db.Open(cfg.DatabaseURL)
    if err != nil {
        logrus.Fatal(err)
    }
    defer conn.Close()

    if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
        logrus.Fatal(err)
    }

    campaignRepo := &repository.CampaignRepository{DB: conn}
    sched := scheduler.New()
    defer sched.Stop()

    var q queue.Queue
    if cfg.AmqpURL != "" {
        qconn, err := amqp.Dial(cfg.AmqpURL)
        if err != nil {
            logrus.Fatal("failed to connect to RabbitMQ: ", err)
        }
        defer qconn.Close()

        ch, err := qconn.Channel()
        if err != nil {
            logrus.Fatal("failed to open a channel: ", err)
        }
        defer ch.Close()

        if _, err := queue.Declare(ch, cfg.QueueName); err != nil {
            logrus.Fatal("failed to declare queue: ", err)
        }
        aq := &queue.AmqpQueue{
            Ch:   ch,
            Jobs: &repository.JobRepository{DB: conn},
            Name: cfg.QueueName,
        }
        // Claims whose publish never reached the broker (crash between
        // claim and publish) are republished before timers are rebuilt.
        if err := aq.Recover(); err != nil {
            logrus.Fatal("dispatch job recovery failed: ", err)
        }
        q = aq
    } else {
        // No broker configured: run the dispatcher in-process.
        logrus.Warn("AMQP_URL not set, running dispatch in-process")
        dispatch := &service.DispatchService{
            CampaignRepo:  campaignRepo,
            LedgerRepo:    &repository.LedgerRepository{DB: conn},
            RecipientRepo: &repository.RecipientRepository{DB: conn},
            Push:          buildPushGateway(cfg),
            Email:         buildEmailGateway(cfg),
            Scheduler:     sched,
            EmailPageSize: cfg.EmailPageSize,
        }
        q = queue.NewInMemoryQueue(dispatch)
    }

    campaignService := &service.CampaignService{
        CampaignRepo: campaignRepo,
        Scheduler:    sched,
        Queue:        q,
    }

    // Timers are a cache of the store; rebuild them before serving.
    if err := campaignService.Rehydrate(context.Background()); err != nil {
        logrus.Fatal("rehydration failed: ", err)
    }

    campaignController := &controller.CampaignController{
        CampaignService: campaignService,
    }
    notificationController := &controller.NotificationController{
        NotificationService: &service.NotificationService{
            LedgerRepo: &repository.LedgerRepository{DB: conn},
        },
    }

    r := chi.NewRouter()
    r.Post("/campaigns", campaignController.CreateCampaign)
    r.Get("/campaigns", campaignController.ListCampaigns)
    r.Get("/campaigns/{id}", campaignController.GetCampaign)
    r.Patch("/campaigns/{id}", campaignController.UpdateCampaign)
    r.Post("/campaigns/{id}/deactivate", campaignController.DeactivateCampaign)
    r.Get("/campaigns/{id}/event", notificationController.GetCampaignEvent)
    r.Get("/recipients/{id}/notifications", notificationController.ListInbox)
    r.Post("/recipients/{id}/notifications/{eventID}/read", notificationController.MarkRead)
    r.Delete("/recipients/{id}/notifications/{eventID}", notificationController.DeleteNotification)

    logrus.Info("server running on ", cfg.HTTPAddr)
    logrus.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func buildPushGateway(cfg *config.Config) gateway.PushGateway {
    if cfg.FirebaseCredentialsFile == "" {
        logrus.Warn("FIREBASE_CREDENTIALS_FILE not set, push goes to console")
        return gateway.ConsoleGateway{}
    }
    g, err := gateway.NewFCMGateway(context.Background(), cfg.FirebaseCredentialsFile, cfg.PushTopic)
    if err != nil {
        logrus.Fatal("firebase init failed: ", err)
    }
    return g
}

func buildEmailGateway(cfg *config.Config) gateway.EmailGateway {
    if cfg.SmtpHost == "" {
        logrus.Warn("SMTP_HOST not set, email goes to console")
        return gateway.ConsoleGateway{}
    }
    return &gateway.SMTPGateway{
        Host:     cfg.SmtpHost,
        Port:     cfg.SmtpPort,
        From:     cfg.SmtpFrom,
        Password: cfg.SmtpPassword,
    }
}
