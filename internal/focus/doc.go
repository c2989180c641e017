// Package focus turns the stage → group → action hierarchy into one linear
// sequence and moves a focus cursor over it from keyboard and gamepad input.
//
// Right and left wrap around both ends; enter or space activates the focused
// action. With an empty sequence every handler does nothing.
package focus
