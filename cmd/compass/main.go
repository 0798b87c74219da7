package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/communitycompass/compass/config"
	"github.com/communitycompass/compass/internal/app"
	"github.com/communitycompass/compass/internal/webapi"
	"github.com/communitycompass/compass/internal/webserver"
)

var (
	cfile   = flag.String("c", "compass.yml", "config file path")
	initdb  = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	syncdir = flag.Bool("sync", false, "run one directory snapshot sync, then exit")
	showVer = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("compass %s\n", version)
		return
	}

	cfg := config.LoadConfig(*cfile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.DropAll()
		if err := application.MigrateDB(); err != nil {
			zap.S().Fatalf("database initialization failed: %v", err)
		}
		zap.S().Info("database initialized")
		return
	}

	if *syncdir {
		if err := application.SyncDirectory(); err != nil {
			zap.S().Fatalf("directory sync failed: %v", err)
		}
		return
	}

	ws := webserver.Init(application)
	webapi.RegisterRoutes()

	go func() {
		if err := ws.Listen(); err != nil {
			zap.S().Fatalf("web server stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zap.S().Info("shutting down")
}
