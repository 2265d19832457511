// Package points holds the immutable point store and the integer distance model.
//
// A point list is line-oriented text with one junction box per line, written
// as three comma-separated non-negative integers:
//
//	162,817,812
//	57,618,57
//	906,360,560
//
// Parsing is all-or-nothing: the first malformed line fails the whole input
// and no partial [Store] is ever returned. Points are identified by their
// 0-based line index, which stays stable for the lifetime of a run.
//
// # Distance
//
// [Distance] is the floor of the Euclidean distance computed with exact
// integer arithmetic: squared differences are summed as uint64 and an integer
// square root is taken. Coordinates are limited to [0, MaxCoordinate] so the
// sum of squares can never overflow.
package points
