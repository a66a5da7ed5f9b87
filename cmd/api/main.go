package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/chat-platform/internal/chat"
	"github.com/suPer8Hu/chat-platform/internal/config"
	"github.com/suPer8Hu/chat-platform/internal/db"
	"github.com/suPer8Hu/chat-platform/internal/httpapi"
	"github.com/suPer8Hu/chat-platform/internal/httpapi/handlers"
	"github.com/suPer8Hu/chat-platform/internal/search"
	"github.com/suPer8Hu/chat-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/chat-platform/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	db.Migrate(gdb)

	rds := redisstore.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.ChatCreationQueue, cfg.MessageCreationQueue)
	if err != nil {
		log.Fatalf("rabbit publisher: %v", err)
	}
	defer pub.Close()

	es := search.NewClient(cfg.ElasticURL)
	if err := es.EnsureIndex(context.Background()); err != nil {
		// Search is out-of-band; the API serves without it.
		log.Printf("search: ensure index: %v", err)
	}

	repo := chat.NewRepo(gdb)
	apps := chat.NewApplicationService(repo, rds, rds)
	chats := chat.NewChatService(repo, apps, rds, rds, pub)
	messages := chat.NewMessageService(repo, apps, rds, pub, es)

	h := handlers.NewHandler(apps, chats, messages)
	r := httpapi.NewRouter(h)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("api shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
