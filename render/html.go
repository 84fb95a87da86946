package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
)

// HTMLRenderer outputs a standalone page around the SVG. With a SessionURL the
// page becomes interactive: it forwards pointer events to the session and
// redraws from the session's frames.
type HTMLRenderer struct{}

// Name returns the name of the renderer
func (r *HTMLRenderer) Name() string {
	return "HTML Renderer"
}

// Description returns a description of the renderer
func (r *HTMLRenderer) Description() string {
	return "Renders an HTML page; interactive (drag and select) when bound to a live session"
}

// ContentType returns the MIME type of the output
func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render creates the page
func (r *HTMLRenderer) Render(frame Frame, options *OutputOptions) ([]byte, error) {
	var svg bytes.Buffer
	writeSVG(&svg, Layout(frame), options)

	title := options.Title
	if title == "" {
		title = "Causal Graph"
	}

	session, err := json.Marshal(options.SessionURL)
	if err != nil {
		return nil, err
	}

	status := ""
	if frame.Ignored > 0 {
		status = fmt.Sprintf("%d relationships were ignored", frame.Ignored)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, pageTemplate,
		html.EscapeString(title),
		options.Theme.Background,
		html.EscapeString(title),
		html.EscapeString(status),
		svg.String(),
		session,
	)
	return buf.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0, maximum-scale=1.0, user-scalable=no">
  <title>%s</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
      background-color: %s;
      overflow: hidden;
      touch-action: none;
    }
    header { display: flex; justify-content: space-between; padding: 12px 16px; }
    header h1 { font-size: 18px; }
    header span { font-size: 12px; color: #808080; }
    #stage { width: 100vw; height: calc(100vh - 48px); }
    #stage svg { width: 100%%; height: 100%%; }
    .node { cursor: pointer; }
    .node text { pointer-events: none; user-select: none; }
  </style>
</head>
<body>
  <header><h1>%s</h1><span id="status">%s</span></header>
  <div id="stage">%s</div>
  <script>
    const session = %s;
    if (session) {
      const stage = document.getElementById('stage');
      let pending = false;

      function toLayout(evt) {
        const svg = stage.querySelector('svg');
        const pt = svg.createSVGPoint();
        pt.x = evt.clientX;
        pt.y = evt.clientY;
        const p = pt.matrixTransform(svg.getScreenCTM().inverse());
        return { x: p.x, y: p.y };
      }

      // Pointer writes go out one at a time, in event order. Moves that pile
      // up behind a request collapse into the latest position.
      let queue = Promise.resolve();
      let nextMove = null;

      function post(type, p) {
        return fetch(session + '/pointer', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ type: type, x: p.x, y: p.y }),
        }).catch(() => {});
      }

      function send(type, evt) {
        const p = toLayout(evt);
        if (type === 'move') {
          const queued = nextMove !== null;
          nextMove = p;
          if (queued) return;
          queue = queue.then(() => {
            const last = nextMove;
            nextMove = null;
            return post('move', last);
          });
        } else {
          queue = queue.then(() => post(type, p));
        }
        queue = queue.then(refresh);
      }

      function refresh() {
        if (pending) return;
        pending = true;
        fetch(session + '/frame.svg')
          .then(r => r.text())
          .then(svg => {
            const doc = new DOMParser().parseFromString(svg, 'image/svg+xml');
            stage.replaceChildren(document.importNode(doc.documentElement, true));
          })
          .finally(() => { pending = false; });
      }

      let down = false;
      stage.addEventListener('pointerdown', e => { down = true; stage.setPointerCapture(e.pointerId); send('down', e); });
      stage.addEventListener('pointermove', e => { if (down) send('move', e); });
      stage.addEventListener('pointerup', e => { down = false; send('up', e); });
      setInterval(refresh, 50);
    }
  </script>
</body>
</html>
`
