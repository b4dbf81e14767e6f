// Package html wraps a rendered treemap SVG in a self-contained viewer page.
//
// A page has two modes. Standalone pages (no API base) show the embedded
// SVG with hover tooltips. Served pages also forward clicks and fragment
// changes to the viewer API, which runs the focus transition and returns
// the next SVG:
//
//	GET {api}/view?path=<current>&click=<id>&w=<px>&h=<px>
//	-> {"path": "#bin#main-packages", "svg": "<svg ...>", "title": "bin"}
//
// The fragment holds the navigation path, so reloading or sharing the URL
// restores the focus.
package html

import (
	"bytes"
	"html/template"
)

// Page is the data of one viewer page.
type Page struct {
	Title string
	// SVG is the initial document, produced by the svg renderer.
	SVG []byte
	// Path is the navigation path the SVG was rendered for.
	Path string
	// API is the base URL of the report's viewer endpoints; empty for a
	// standalone page.
	API string
}

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

// Render returns the page document.
func Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		Page
		Doc template.HTML
	}{p, template.HTML(p.SVG)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; height: 100%; overflow: hidden; background: #fff; }
  #treemap { width: 100vw; height: 100vh; }
  #treemap svg { display: block; width: 100%; height: 100%; }
  #tooltip {
    position: fixed; visibility: hidden; pointer-events: none; z-index: 10;
    background: rgba(255,255,255,0.96); border: 1px solid #999; border-radius: 4px;
    padding: 6px 8px; font: 12px sans-serif; max-width: 60vw;
  }
  #tooltip .name { font-weight: bold; margin-bottom: 4px; word-break: break-all; }
  #tooltip pre { margin: 0; font: 12px monospace; }
  .node { cursor: pointer; }
</style>
</head>
<body>
<div id="treemap" data-api="{{.API}}">{{.Doc}}</div>
<div id="tooltip"><div class="name"></div><pre></pre></div>
<script>
(function () {
  const root = document.getElementById('treemap');
  const tip = document.getElementById('tooltip');
  const api = root.dataset.api;
  let path = {{.Path}};

  function currentHash() {
    // decodeURI keeps an encoded "#" inside a name intact. A stray "%"
    // makes it throw; the raw hash then simply fails to resolve.
    try {
      return decodeURI(location.hash);
    } catch (e) {
      return location.hash;
    }
  }

  function writeHash(p) {
    if (currentHash() === p) return;
    history.replaceState(null, '', p === '' ? ' ' : p);
  }

  function nodeOf(el) {
    return el && el.closest ? el.closest('g.node') : null;
  }

  async function load(params) {
    if (!api) return;
    const q = new URLSearchParams(params);
    q.set('w', String(root.clientWidth || window.innerWidth));
    q.set('h', String(root.clientHeight || window.innerHeight));
    const res = await fetch(api + '/view?' + q.toString());
    if (!res.ok) return;
    const view = await res.json();
    root.innerHTML = view.svg;
    document.title = view.title;
    path = view.path;
    writeHash(path);
  }

  root.addEventListener('click', (e) => {
    const n = nodeOf(e.target);
    if (!n || !api) return;
    load({ path: path, click: n.dataset.id });
  });

  root.addEventListener('mousemove', (e) => {
    const n = nodeOf(e.target);
    const t = n && n.querySelector(':scope > title');
    if (!t) { tip.style.visibility = 'hidden'; return; }
    const text = t.textContent;
    const cut = text.indexOf('\n\n');
    tip.querySelector('.name').textContent = cut < 0 ? text : text.slice(0, cut);
    tip.querySelector('pre').textContent = cut < 0 ? '' : text.slice(cut + 2);
    let x = e.clientX + 10, y = e.clientY + 30;
    const box = tip.getBoundingClientRect();
    if (x + box.width > window.innerWidth) x = window.innerWidth - box.width;
    if (y + box.height > window.innerHeight) y = e.clientY - 30 - box.height;
    tip.style.left = x + 'px';
    tip.style.top = y + 'px';
    tip.style.visibility = 'visible';
  });
  root.addEventListener('mouseleave', () => { tip.style.visibility = 'hidden'; });

  window.addEventListener('hashchange', () => {
    const h = currentHash();
    if (h !== path) load({ path: h });
  });
  let resizeTimer;
  window.addEventListener('resize', () => {
    clearTimeout(resizeTimer);
    resizeTimer = setTimeout(() => load({ path: path }), 150);
  });

  const h = currentHash();
  if (api && h !== path) load({ path: h });
  else if (api) load({ path: path });
  else writeHash(path);
})();
</script>
</body>
</html>
`
