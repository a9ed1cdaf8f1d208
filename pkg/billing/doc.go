// Package billing connects the Paddle billing provider to subscription
// records.
//
// Webhook bodies are decoded by ParseEvent into one of a closed set of event
// types. Processor.Apply turns each into a subscription change, at most once
// per event id. Price ids are mapped to tiers through the plan catalog; an
// unknown price is logged and acknowledged so the provider does not retry
// forever. Outbound flows (hosted checkout and customer portal) go through
// Provider.
package billing
