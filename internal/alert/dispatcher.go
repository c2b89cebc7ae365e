// Package alert composes and sends SMS notifications for high-tier risk
// classifications.
package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/model"
	"github.com/healthsignals/riskwatch/internal/risk"
)

// SMSSender sends one text message. Implemented by pkg/twilio.
type SMSSender interface {
	SendSMS(ctx context.Context, to, from, body string) error
}

// Dispatcher sends risk alerts to the configured recipient. The decision of
// WHETHER to alert lives in the pipeline; the dispatcher only composes and
// sends.
type Dispatcher struct {
	sender    SMSSender
	from      string
	recipient string
}

// NewDispatcher creates an alert dispatcher.
func NewDispatcher(sender SMSSender, from, recipient string) (*Dispatcher, error) {
	if sender == nil {
		return nil, eris.New("alert: nil sender")
	}
	if from == "" || recipient == "" {
		return nil, eris.New("alert: from and recipient numbers are required")
	}
	return &Dispatcher{sender: sender, from: from, recipient: recipient}, nil
}

// Deliver sends the alert for one classified report.
func (d *Dispatcher) Deliver(ctx context.Context, a risk.Assessment, r model.Report) error {
	body := Message(a, r)
	if err := d.sender.SendSMS(ctx, d.recipient, d.from, body); err != nil {
		return eris.Wrapf(err, "alert: send for report %s", r.ID)
	}
	zap.L().Info("alert: sent",
		zap.String("report_id", r.ID),
		zap.String("village_id", r.VillageID),
		zap.String("tier", string(a.Tier)),
	)
	return nil
}

// Message renders the alert text: "<TIER> RISK: Village <id>. <notes>".
func Message(a risk.Assessment, r model.Report) string {
	msg := fmt.Sprintf("%s RISK: Village %s.", strings.ToUpper(string(a.Tier)), r.VillageID)
	if notes := a.JoinedNotes(); notes != "" {
		msg += " " + notes
	}
	return msg
}
