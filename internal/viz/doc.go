// Package viz renders stored trajectories for the terminal and as images.
//
//   - [Terminal]: asciigraph line chart of one sampled quantity
//   - [WritePNG]: gonum/plot line chart of one or more quantities
//   - [Header], [Label], [Good], [Bad]: lipgloss styles for command output
package viz
