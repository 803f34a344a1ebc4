package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDashcam()
	c.normalizeTargets()
	c.normalizeWiFi()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DownloadDir, err = expandPath(strings.TrimSpace(c.Paths.DownloadDir)); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDashcam() {
	c.Dashcam.SSID = strings.TrimSpace(c.Dashcam.SSID)
	c.Dashcam.Model = strings.ToUpper(strings.TrimSpace(c.Dashcam.Model))
	c.Dashcam.Host = strings.TrimSpace(c.Dashcam.Host)
	if c.Dashcam.Model == ModelGarminVirb {
		if value, ok := os.LookupEnv(EnvVirbHost); ok && strings.TrimSpace(value) != "" {
			c.Dashcam.Host = strings.TrimSpace(value)
		}
	}
	c.Home.SSID = strings.TrimSpace(c.Home.SSID)
}

func (c *Config) normalizeTargets() {
	c.SMB.Host = strings.TrimSpace(c.SMB.Host)
	c.SMB.Share = strings.TrimSpace(c.SMB.Share)
	if c.SMB.Share == "" {
		c.SMB.Share = defaultSMBShare
	}
	if strings.TrimSpace(c.SMB.StoragePath) == "" {
		c.SMB.StoragePath = defaultStoragePath
	}

	c.WebDAV.URL = strings.TrimRight(strings.TrimSpace(c.WebDAV.URL), "/")
	if strings.TrimSpace(c.WebDAV.StoragePath) == "" {
		c.WebDAV.StoragePath = defaultStoragePath
	}

	c.S3.Endpoint = strings.TrimSpace(c.S3.Endpoint)
	c.S3.Bucket = strings.TrimSpace(c.S3.Bucket)
	c.S3.Region = strings.TrimSpace(c.S3.Region)
	if c.S3.Region == "" {
		c.S3.Region = defaultS3Region
	}
	if strings.TrimSpace(c.S3.Prefix) == "" {
		c.S3.Prefix = defaultStoragePath
	}
}

func (c *Config) normalizeWiFi() {
	c.WiFi.Interface = strings.TrimSpace(c.WiFi.Interface)
	c.WiFi.NmcliBinary = strings.TrimSpace(c.WiFi.NmcliBinary)
	if c.WiFi.NmcliBinary == "" {
		c.WiFi.NmcliBinary = defaultNmcliBinary
	}
	if len(c.LED.Paths) == 0 {
		c.LED.Paths = append([]string(nil), defaultLEDPaths...)
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	case "none", "off":
		c.Logging.Level = "silent"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
