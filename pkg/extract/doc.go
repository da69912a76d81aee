// Package extract pulls facts out of HTML text: phone occurrences, content
// marker counts, navigation containers and link targets.
//
// Every function here is a pure function of its input. Nothing reads or
// writes files.
package extract
