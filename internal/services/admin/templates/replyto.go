package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/notifyops/notify-admin/internal/notify"
)

// ReplyToView is the reply-to address management page model.
type ReplyToView struct {
	ServiceID string
	Addresses []notify.ReplyToAddress
}

func ReplyToPage(pageCtx PageContext, view ReplyToView) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><ul class="reply-to-addresses">`, templ.EscapeString(pageCtx.T("Reply-to email addresses"))); err != nil {
			return err
		}
		for _, address := range view.Addresses {
			if address.Archived {
				continue
			}
			if _, err := fmt.Fprintf(w, `<li>%s`, templ.EscapeString(address.EmailAddress)); err != nil {
				return err
			}
			if address.IsDefault {
				if _, err := fmt.Fprintf(w, ` <span class="tag">%s</span>`, templ.EscapeString(pageCtx.T("default"))); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, `<form method="post" action=%q>%s<button type="submit">%s</button></form></li>`,
				"/services/"+view.ServiceID+"/reply-to/"+address.ID+"/archive",
				pageCtx.CSRFField(),
				templ.EscapeString(pageCtx.T("Remove"))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
	return Page(pageCtx, pageCtx.T("Reply-to email addresses"), body)
}
