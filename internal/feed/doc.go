// Package feed defines the aggregation core: the canonical source and item
// types, the RSS document parser, the submission URL validator, and the
// dedup/merge engine that folds freshly fetched items into the stream.
package feed
