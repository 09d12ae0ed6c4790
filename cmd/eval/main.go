// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Command eval measures offline retrieval quality. It loads a catalog
// snapshot and a labeled query set, runs the full recommendation pipeline
// for each query, and reports recall@k.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/embedding"
	"github.com/tomtom215/skillmatch/internal/eval"
	"github.com/tomtom215/skillmatch/internal/recommend"
)

func main() {
	var (
		catalogPath = flag.String("catalog", "catalog.json", "path to the catalog snapshot")
		labeledPath = flag.String("labeled", "labeled.csv", "path to the labeled query CSV (query,id|id|id)")
		k           = flag.Int("k", 10, "result list size to evaluate")
		provider    = flag.String("embedder", "hashing", "embedder provider: hashing or http")
		baseURL     = flag.String("embedding-url", "", "embedding API base URL (http provider)")
		apiKey      = flag.String("embedding-key", "", "embedding API key (http provider)")
		model       = flag.String("embedding-model", "", "embedding model name (http provider)")
		dimension   = flag.Int("dimension", embedding.DefaultDimension, "embedding dimension")
		timeout     = flag.Duration("timeout", 5*time.Minute, "overall evaluation deadline")
		verbose     = flag.Bool("v", false, "print per-query results")
	)
	flag.Parse()

	if err := run(*catalogPath, *labeledPath, *k, *provider, *baseURL, *apiKey, *model, *dimension, *timeout, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "eval: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogPath, labeledPath string, k int, provider, baseURL, apiKey, model string, dimension int, timeout time.Duration, verbose bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	embedder, err := buildEmbedder(provider, baseURL, apiKey, model, dimension)
	if err != nil {
		return err
	}

	engine, err := recommend.NewEngine(recommend.DefaultConfig(), zerolog.Nop(), embedder, nil)
	if err != nil {
		return err
	}

	records, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	if err := engine.Reload(ctx, records); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	queries, err := eval.LoadLabeledCSV(labeledPath)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("labeled set %s is empty", labeledPath)
	}

	report, err := eval.Evaluate(ctx, engine, queries, k)
	if err != nil {
		return err
	}

	printReport(report, verbose)
	return nil
}

func buildEmbedder(provider, baseURL, apiKey, model string, dimension int) (embedding.Embedder, error) {
	switch provider {
	case "hashing":
		return embedding.NewHashingEmbedder(dimension)
	case "http":
		return embedding.NewHTTPEmbedder(embedding.HTTPConfig{
			BaseURL:   baseURL,
			APIKey:    apiKey,
			Model:     model,
			Dimension: dimension,
		})
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", provider)
	}
}

func printReport(report *eval.Report, verbose bool) {
	fmt.Printf("queries:      %d\n", report.Queries)
	fmt.Printf("k:            %d\n", report.K)
	fmt.Printf("mean recall:  %.4f\n", report.MeanRecall)

	if len(report.CategoryCounts) > 0 {
		fmt.Println("categories returned:")
		names := make([]string, 0, len(report.CategoryCounts))
		for name := range report.CategoryCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-24s %d\n", name, report.CategoryCounts[name])
		}
	}

	if verbose {
		fmt.Println("per-query:")
		for _, q := range report.PerQuery {
			query := q.Query
			if len(query) > 60 {
				query = query[:57] + "..."
			}
			fmt.Printf("  recall=%.2f hits=%d/%d strategy=%s top=%s query=%q\n",
				q.Recall, q.Hits, q.Relevant, q.Strategy, q.TopResult, query)
		}
	}
}
