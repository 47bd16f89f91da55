package fixtures

// This package is a home for reusable test data and helper functions
// shared across test suites. It contains no fixtures or helpers: this
// file is its only content.
