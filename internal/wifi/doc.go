// Package wifi switches the single radio between the dashcam access point and
// the home network using NetworkManager's nmcli.
package wifi
