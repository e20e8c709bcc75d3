package main

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Speech Digest Viewer</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; background: #f7f7f8; color: #222; }
.card { background: #fff; border-radius: 8px; padding: 1rem 1.25rem; margin-bottom: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.stage { font-size: .85rem; color: #666; }
.stage b { color: #1a6; }
.failed b { color: #c33; }
h2 { margin: .25rem 0; font-size: 1.1rem; }
ul { margin: .25rem 0 .5rem 1.25rem; }
pre { white-space: pre-wrap; font-size: .8rem; background: #f2f2f2; padding: .5rem; }
</style>
</head>
<body>
<h1>Speech Digest Viewer</h1>
<div id="status" class="stage">connecting...</div>
<div id="cards"></div>
<script>
const cards = {};
function card(id) {
  if (!cards[id]) {
    const el = document.createElement('div');
    el.className = 'card';
    el.innerHTML = '<div class="stage"></div><div class="body"></div>';
    document.getElementById('cards').prepend(el);
    cards[id] = el;
  }
  return cards[id];
}
function esc(s) { const d = document.createElement('div'); d.textContent = s || ''; return d.innerHTML; }
function list(items) { return '<ul>' + (items || []).map(i => '<li>' + esc(i) + '</li>').join('') + '</ul>'; }
function connect() {
  const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
  ws.onopen = () => document.getElementById('status').textContent = 'connected';
  ws.onclose = () => { document.getElementById('status').textContent = 'disconnected, retrying'; setTimeout(connect, 2000); };
  ws.onmessage = (msg) => {
    const e = JSON.parse(msg.data);
    const el = card(e.submissionId);
    const stage = el.querySelector('.stage');
    if (e.stage) {
      stage.className = 'stage' + (e.stage === 'FAILED' ? ' failed' : '');
      stage.innerHTML = esc(e.submissionId) + ' <b>' + esc(e.stage) + '</b>';
    }
    if (e.result) {
      const r = e.result;
      el.querySelector('.body').innerHTML =
        '<h2>' + esc(r.title || r.fileName) + '</h2>' +
        '<div class="stage">' + esc(r.duration) + ' · ' + r.participants + ' participants · ' + esc(r.sentiment) + '</div>' +
        '<p>' + esc(r.summary) + '</p>' + list(r.keyPoints) +
        '<details><summary>Transcript</summary><pre>' + esc(r.transcript) + '</pre></details>';
    }
  };
}
connect();
</script>
</body>
</html>
`
