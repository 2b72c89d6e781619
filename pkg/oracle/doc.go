/*
Package oracle memoizes a user supplied transition function.

The Oracle validates every transition list it produces and stores it in a Cache
keyed by state hash. The underlying function runs at most once per distinct state,
even under concurrent resolution. A Cache can be shared by several oracles and
engines (for example a simulation and its history-free clones).
*/
package oracle
