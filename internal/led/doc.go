// Package led shows transfer activity on the Raspberry Pi status LEDs: a slow
// blink while idle and solid on while a pass is running.
package led
