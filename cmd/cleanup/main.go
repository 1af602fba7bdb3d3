// Copyright 2026 The OpenRoster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command cleanup prunes ended role assignments older than the retention
// window. Open assignments are never touched.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openroster/openroster/internal/config"
	"github.com/openroster/openroster/internal/observability/logger"
	"github.com/openroster/openroster/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	ctx := context.Background()

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	cutoff := time.Now().Add(-cfg.Retention.AssignmentHistory)
	assignmentRepo := postgres.NewAssignmentRepository(db)

	pruned, err := assignmentRepo.EndedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("failed to prune ended assignments", logger.Error(err))
		os.Exit(1)
	}

	slog.Info("pruned ended assignments",
		"pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339),
	)
}
