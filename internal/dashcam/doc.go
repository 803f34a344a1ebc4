// Package dashcam talks to the camera's WiFi API.
//
// Each supported model implements Source: enumerate locked recordings, stream
// one recording, and delete it from the card once the local copy is verified.
// NewSource picks the implementation from dashcam.model.
package dashcam
