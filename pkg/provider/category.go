package provider

import (
	"errors"
	"fmt"
)

var ErrInvalidCategory = errors.New("invalid number id")

// Category selects which provider is queried.
type Category string

const (
	Primes    Category = "p"
	Fibonacci Category = "f"
	Even      Category = "e"
	Random    Category = "r"
)

// paths maps every category to its path below the provider base URL.
var paths = map[Category]string{
	Primes:    "primes",
	Fibonacci: "fibonacci",
	Even:      "even",
	Random:    "random",
}

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{Primes, Fibonacci, Even, Random}
}

// ParseCategory validates a caller-supplied token.
func ParseCategory(token string) (Category, error) {
	c := Category(token)
	if _, ok := paths[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, token)
	}
	return c, nil
}

// Path returns the provider path for c, e.g. "primes".
func (c Category) Path() string {
	return paths[c]
}

func (c Category) String() string {
	return string(c)
}
