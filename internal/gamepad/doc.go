// Package gamepad reads a Linux joystick device and samples it once per
// frame. Only the d-pad (buttons 14/15 or the hat axis) and the primary
// button are tracked.
package gamepad
