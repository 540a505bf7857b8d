package config

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
	// Endpoint overrides the account endpoint; used for S3-compatible stores.
	Endpoint string
}

// Enabled reports whether enough is set to presign uploads.
func (c R2Config) Enabled() bool {
	return (c.AccountID != "" || c.Endpoint != "") &&
		c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

func loadR2Config(src *source) R2Config {
	return R2Config{
		AccountID:       src.str("CLOUDFLARE_ACCOUNT_ID", ""),
		AccessKeyID:     src.str("CLOUDFLARE_ACCESS_KEY_ID", ""),
		SecretAccessKey: src.str("CLOUDFLARE_SECRET_ACCESS_KEY", ""),
		BucketName:      src.str("CLOUDFLARE_BUCKET_NAME", ""),
		PublicURL:       src.str("CLOUDFLARE_PUBLIC_URL", ""),
		Region:          src.str("CLOUDFLARE_REGION", "auto"),
		Endpoint:        src.str("CLOUDFLARE_ENDPOINT", ""),
	}
}
