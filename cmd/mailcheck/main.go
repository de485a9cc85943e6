// Command mailcheck inspects the email configuration and sends a test message.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"portfolio-backend/config"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/email"
	"portfolio-backend/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	ok   = color.New(color.FgGreen).SprintFunc()
	bad  = color.New(color.FgRed).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "mailcheck",
	Short: "Check the contact form email setup",
	Long: `mailcheck reads the same environment (and .env file) as the API server
and reports how contact emails will be delivered.`,
	SilenceUsage: true,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Print the email configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var sendTestCmd = &cobra.Command{
	Use:   "send-test",
	Short: "Send a test contact email to CONTACT_EMAIL",
	Long: `Send a test contact email through the same transports the API uses.

Example:
  mailcheck send-test          # asks for confirmation
  mailcheck send-test --yes    # no prompt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")

		// Transport attempts are the interesting part here, so log them readably
		logger.Init(logger.Options{Level: "debug", Format: "text"})
		mailer := email.NewEmailService(cfg)

		printConfig(cmd.OutOrStdout(), cfg)
		return sendTest(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), mailer, cfg, yes)
	},
}

func init() {
	sendTestCmd.Flags().BoolP("yes", "y", false, "Send without asking for confirmation")
	rootCmd.AddCommand(verifyCmd, sendTestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, bold("Email configuration"))
	fmt.Fprintf(w, "  Recipient (CONTACT_EMAIL): %s\n", cfg.ContactEmailTo)
	fmt.Fprintf(w, "  Sender (FROM_EMAIL):       %s <%s>\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(w, "  SMTP host:                 %s:%d\n", cfg.SMTPHost, cfg.SMTPPort)
	fmt.Fprintf(w, "  SMTP user:                 %s\n", orNotSet(cfg.SMTPUsername))
	fmt.Fprintf(w, "  SMTP pass:                 %s\n", maskSecret(cfg.SMTPPassword))
	fmt.Fprintf(w, "  Fallback relay:            %s\n", cfg.MailFallbackAddr)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  SMTP configured:           %s\n", yesNo(email.IsConfigured(cfg)))
	fmt.Fprintf(w, "  FROM_EMAIL equals SMTP_USER: %s\n", yesNo(strings.EqualFold(cfg.FromEmail, cfg.SMTPUsername)))
}

func sendTest(ctx context.Context, w io.Writer, in io.Reader, mailer domain.Mailer, cfg *config.Config, yes bool) error {
	if !yes {
		fmt.Fprintf(w, "\nSend test email to %s? (y/n): ", cfg.ContactEmailTo)
		line, _ := bufio.NewReader(in).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(line)) != "y" {
			fmt.Fprintln(w, "Test cancelled.")
			return nil
		}
	}

	fmt.Fprintln(w, "\nSending test email...")
	name := "Test User"
	msg := domain.EmailAttempt{
		Recipient: cfg.ContactEmailTo,
		Subject:   fmt.Sprintf("Portfolio Test: Email from %s", name),
		Body: fmt.Sprintf(`New Contact Form Submission (TEST)

Name: %s
Email: test@example.com

Message:
This is a test email sent by mailcheck. If you receive this, email sending is working correctly!

---
This is a test email.
Time: %s
`, name, time.Now().In(cfg.Location()).Format("2006-01-02 15:04:05")),
		ReplyTo:     "test@example.com",
		ReplyToName: name,
	}

	sendCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()
	delivery := mailer.Send(sendCtx, msg)

	for _, a := range delivery.Attempts {
		if a.OK() {
			fmt.Fprintf(w, "  %s %-6s %s\n", ok("✓"), a.Transport, a.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(w, "  %s %-6s %v\n", bad("✗"), a.Transport, a.Err)
		}
	}
	if !delivery.Delivered() {
		return fmt.Errorf("test email was not delivered")
	}
	fmt.Fprintf(w, "%s Delivered via %s. Check the inbox and spam folder of %s.\n", ok("✓"), delivery.Transport(), cfg.ContactEmailTo)
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "***"
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return ok("YES")
	}
	return bad("NO")
}
