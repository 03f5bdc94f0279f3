// Package analysis provides pointwise transforms over evaluated fields and
// helpers for inspecting integrated trajectories.
//
//   - [Log10]: base-10 logarithm of a strictly positive field
//   - [DualLimitation]: log10 of the iron/glucose Monod saturation ratio
//   - [Range]: finite minimum and maximum of a field, for color scales
//   - [Component]: one state variable of a trajectory as a time series
//
// Transforms never modify their inputs. A non-positive or NaN value inside a
// logarithm yields a [dynamo.DomainError] naming the first offending cell in
// row-major order.
package analysis
