/*
Package observability provides tools for monitoring the entropia engine.

Metrics turns the engine's lifecycle hooks into Prometheus collectors: oracle
resolutions, simulation steps (entropy, support size, pruned mass) and exploration
rounds. Pass Metrics.Hooks() to the oracle, simulation and explorer options and
expose the registry with promhttp.
*/
package observability
