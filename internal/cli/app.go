package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldsales/crm-comercios/internal/config"
	"github.com/fieldsales/crm-comercios/internal/db"
	"github.com/fieldsales/crm-comercios/internal/geocode"
	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/metrics"
	"github.com/fieldsales/crm-comercios/internal/route"
	"github.com/fieldsales/crm-comercios/internal/sheets"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

// app is the set of stores and services every command works against.
type app struct {
	cfg       config.Config
	db        *sql.DB
	directory *merchant.Source
	repo      *visit.Repository
	metrics   *metrics.Metrics
}

// openApp loads the config, the merchant directory and the local store.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	directory, err := merchant.Open(cfg.DirectoryPath)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		db:        database,
		directory: directory,
		repo:      visit.NewRepository(database),
		metrics:   metrics.New(),
	}, nil
}

func (a *app) Close() {
	closeDB(a.db)
}

// visitService builds the submission service with the configured mirror.
func (a *app) visitService(ctx context.Context) (*visit.Service, error) {
	var mirror visit.Mirror = sheets.Disabled{}
	if a.cfg.Sheets.Enabled {
		m, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID: a.cfg.Sheets.SpreadsheetID,
			Sheet:         a.cfg.Sheets.Sheet,
		}, a.cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("configuring sheets export: %w", err)
		}
		mirror = m
	}
	return visit.NewService(a.repo, mirror, visit.WithMetrics(a.metrics)), nil
}

// planner builds a route planner backed by the configured geocoder.
func (a *app) planner() (*route.Planner, error) {
	g, err := geocode.NewClient(geocode.Config{
		BaseURL:   a.cfg.Geocoder.BaseURL,
		UserAgent: a.cfg.Geocoder.UserAgent,
		Country:   a.cfg.Geocoder.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring geocoder: %w", err)
	}
	return route.NewPlanner(g, a.metrics), nil
}
