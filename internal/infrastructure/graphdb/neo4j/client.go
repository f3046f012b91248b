// Package neo4j publishes derived union graphs to a Neo4j database.
package neo4j

import (
	"context"
	"errors"
	"fmt"

	bolt "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ersonp/uniao/internal/infrastructure/config"
)

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("neo4j uri is required")

// Client is the minimal contract the sink needs from a graph database.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// NewClient opens a Bolt connection with the official driver and verifies it.
func NewClient(ctx context.Context, cfg config.Neo4jConfig) (Client, error) {
	if cfg.URI == "" {
		return nil, ErrMissingURI
	}

	auth := bolt.NoAuth()
	if cfg.Username != "" {
		auth = bolt.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := bolt.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &driverClient{driver: driver, database: cfg.Database}, nil
}

type driverClient struct {
	driver   bolt.DriverWithContext
	database string
}

func (c *driverClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.run(ctx, bolt.AccessModeWrite, cypher, params)
}

func (c *driverClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.run(ctx, bolt.AccessModeRead, cypher, params)
}

func (c *driverClient) run(ctx context.Context, mode bolt.AccessMode, cypher string, params map[string]any) (Result, error) {
	session := c.driver.NewSession(ctx, bolt.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, err
	}
	return consumeResult(ctx, res)
}

func (c *driverClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *driverClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func consumeResult(ctx context.Context, res bolt.ResultWithContext) (Result, error) {
	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		record := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			record[key] = value
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return Result{}, err
	}
	return Result{Records: records}, nil
}
