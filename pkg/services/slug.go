package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Slugify converts a workflow name into a URL-safe slug: lowercase,
// alphanumeric runs joined by single hyphens.
func Slugify(name string) string {
	var builder strings.Builder

	lastHyphen := true

	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)

			lastHyphen = false

			continue
		}

		if !lastHyphen {
			builder.WriteByte('-')

			lastHyphen = true
		}
	}

	slug := strings.Trim(builder.String(), "-")
	if slug == "" {
		slug = "workflow"
	}

	return slug
}

type slugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// uniqueSlug disambiguates a base slug with a numeric suffix on collision:
// "report", "report-1", "report-2" and so on.
func uniqueSlug(ctx context.Context, store slugChecker, base string) (string, error) {
	candidate := base

	for suffix := 1; ; suffix++ {
		exists, err := store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug availability: %w", err)
		}

		if !exists {
			return candidate, nil
		}

		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}
