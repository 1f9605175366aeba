package feedcrawler

import (
	"bytes"
	"fmt"
	"text/template"
)

// trackingTemplate is the paste-ready tag block shops drop into their page
// head: the Google tag bootstrap followed by the Meta Pixel base code.
const trackingTemplate = `<!-- Google tag (gtag.js) -->
<script async src="https://www.googletagmanager.com/gtag/js?id={{.GoogleTagId}}"></script>
<script>
  window.dataLayer = window.dataLayer || [];
  function gtag(){dataLayer.push(arguments);}
  gtag('js', new Date());
  gtag('config', '{{.GoogleTagId}}');
</script>

<!-- Meta Pixel Code -->
<script>
!function(f,b,e,v,n,t,s)
{if(f.fbq)return;n=f.fbq=function(){n.callMethod?
n.callMethod.apply(n,arguments):n.queue.push(arguments)};
if(!f._fbq)f._fbq=n;n.push=n;n.loaded=!0;n.version='2.0';
n.queue=[];t=b.createElement(e);t.async=!0;
t.src=v;s=b.getElementsByTagName(e)[0];
s.parentNode.insertBefore(t,s)}(window, document,'script',
'https://connect.facebook.net/en_US/fbevents.js');
fbq('init', '{{.MetaPixelId}}');
fbq('track', 'PageView');
</script>
<noscript><img height="1" width="1" style="display:none"
src="https://www.facebook.com/tr?id={{.MetaPixelId}}&ev=PageView&noscript=1"
/></noscript>
<!-- End Meta Pixel Code -->
`

type trackingIds struct {
	GoogleTagId string
	MetaPixelId string
}

// WriteTrackingSnippets renders the analytics tag snippets with the
// configured GOOGLE_TAG_ID and META_PIXEL_ID and writes them to
// SNIPPETS_FILE. It returns the written path.
func (app *Crawler) WriteTrackingSnippets() (string, error) {
	ids := trackingIds{
		GoogleTagId: app.Config.GetString("GOOGLE_TAG_ID"),
		MetaPixelId: app.Config.GetString("META_PIXEL_ID"),
	}

	tmpl, err := template.New("tracking").Parse(trackingTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse tracking template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ids); err != nil {
		return "", fmt.Errorf("failed to render tracking snippets: %w", err)
	}

	path := app.Config.GetString("SNIPPETS_FILE")
	if err := app.writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	app.Logger.Info("Tracking snippets written to %s", path)
	return path, nil
}
