package config

// redactedValue replaces secrets in Redacted copies.
const redactedValue = "********"

// Redacted returns a copy of c with passwords and keys masked. Empty secrets
// stay empty so an operator can still see which ones are unset.
func (c *Config) Redacted() Config {
	out := *c
	for _, secret := range []*string{
		&out.Dashcam.Password,
		&out.Home.Password,
		&out.SMB.Password,
		&out.WebDAV.Password,
		&out.S3.AccessKey,
		&out.S3.SecretKey,
	} {
		if *secret != "" {
			*secret = redactedValue
		}
	}
	out.LED.Paths = append([]string(nil), c.LED.Paths...)
	return out
}
