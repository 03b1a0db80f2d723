// Command hashpw prepares the admin credentials an operator puts in the
// environment: the ADMIN_PASSWORD_HASH digest, an optional ADMIN_TOTP_SECRET
// and, with -write-secret, a fresh server secret file.
//
//	echo -n 'password' | ADMIN_SECRET=... hashpw
//	echo -n 'password' | hashpw -secret-file /run/secrets/admin -argon2 -totp
//	hashpw -write-secret /run/secrets/admin -generate
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

func main() {
	var (
		secretFile  = flag.String("secret-file", os.Getenv("ADMIN_SECRET_FILE"), "read the server secret from this file")
		writeSecret = flag.String("write-secret", "", "generate a new server secret and write it to this file")
		useArgon2   = flag.Bool("argon2", false, "emit an Argon2id digest instead of the keyed HMAC digest")
		generate    = flag.Bool("generate", false, "generate a random password instead of reading stdin")
		withTOTP    = flag.Bool("totp", false, "also generate a TOTP secret for the admin")
		account     = flag.String("account", envOr("ADMIN_EMAIL", "admin@localhost"), "TOTP account name")
	)
	flag.Parse()

	secret, err := loadSecret(*secretFile, *writeSecret)
	if err != nil {
		log.Fatalf("server secret: %v", err)
	}

	var password string
	if *generate {
		password, err = cryptox.GeneratePassword()
		if err == nil {
			fmt.Fprintf(os.Stderr, "generated admin password: %s\n", password)
		}
	} else {
		password, err = readPassword(os.Stdin)
	}
	if err != nil {
		log.Fatalf("password: %v", err)
	}

	digest := cryptox.Digest(password, secret)
	if *useArgon2 {
		if digest, err = cryptox.HashPassword(password, secret); err != nil {
			log.Fatalf("hash password: %v", err)
		}
	}
	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", digest)

	if *withTOTP {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "backoffice",
			AccountName: *account,
			Period:      30,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			log.Fatalf("generate TOTP secret: %v", err)
		}
		fmt.Printf("ADMIN_TOTP_SECRET=%s\n", key.Secret())
		fmt.Fprintf(os.Stderr, "enroll with: %s\n", key.URL())
	}
}

func loadSecret(secretFile, writeTo string) (string, error) {
	if writeTo != "" {
		secret, err := cryptox.WriteSecretFile(writeTo)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(os.Stderr, "wrote new server secret to %s (set ADMIN_SECRET_FILE)\n", writeTo)
		return secret, nil
	}
	if s := os.Getenv("ADMIN_SECRET"); s != "" {
		return s, nil
	}
	if secretFile != "" {
		return cryptox.LoadSecretFile(secretFile)
	}
	return "", errors.New("set ADMIN_SECRET, -secret-file or -write-secret")
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password on stdin")
	}
	return password, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
