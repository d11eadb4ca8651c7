package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Research Papers Review Assistant</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; }
form { display: flex; gap: 1rem; align-items: end; flex-wrap: wrap; }
label { display: flex; flex-direction: column; gap: .25rem; }
input[type=text] { min-width: 24rem; }
.turn { border-left: 3px solid #888; margin: 1rem 0; padding: .25rem 1rem; }
.turn .source { font-weight: bold; }
#status { color: #555; }
#status.error { color: #b00; }
</style>
</head>
<body>
<h1>Research Papers Review Assistant</h1>
<form id="survey">
  <label>Research topic <input type="text" name="topic" required></label>
  <label>Papers: <output id="papers-out">{{.DefaultPapers}}</output>
    <input type="range" name="papers" min="1" max="{{.MaxPapers}}" value="{{.DefaultPapers}}"
      oninput="document.getElementById('papers-out').value = this.value">
  </label>
  <button type="submit">Enter</button>
</form>
<p id="status"></p>
<div id="turns"></div>
<script>
const form = document.getElementById('survey');
const status = document.getElementById('status');
const turns = document.getElementById('turns');
form.addEventListener('submit', (ev) => {
  ev.preventDefault();
  const params = new URLSearchParams(new FormData(form));
  turns.innerHTML = '';
  status.className = '';
  status.textContent = 'Working...';
  const source = new EventSource('/api/survey?' + params.toString());
  source.addEventListener('turn', (e) => {
    const t = JSON.parse(e.data);
    const div = document.createElement('div');
    div.className = 'turn';
    const who = document.createElement('div');
    who.className = 'source';
    who.textContent = t.source;
    const body = document.createElement('div');
    body.innerHTML = t.html;
    div.append(who, body);
    turns.append(div);
  });
  source.addEventListener('done', () => {
    status.textContent = 'The research papers review is complete.';
    source.close();
  });
  source.addEventListener('error', (e) => {
    status.className = 'error';
    status.textContent = e.data ? JSON.parse(e.data).message : 'Connection lost.';
    source.close();
  });
});
</script>
</body>
</html>
`
