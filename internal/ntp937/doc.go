// Package ntp937 scores occupational inhalation risk for a chemical-handling
// task using the staged NTP 937 classification.
//
// Pipeline (stages 1-6 are independent, 7 combines them):
//  1. Hazard class from hazard phrases, else from the lowest exposure limit
//  2. Quantity class from grams handled per day
//  3. Exposure potential from quantity x frequency
//  4. Potential risk from exposure potential x hazard, scaled by decades
//  5. Volatility, procedure and protection factors
//  6. Correction factor from the lowest exposure limit
//  7. Product of all factors, mapped to a band
//
// Every stage is pure. An Engine holds no mutable state and may be shared
// across goroutines.
package ntp937
