package host

// Reference shells only. Real popup UIs replace these; the bridge cares
// about the outbox/inbox contract, not the markup.

const popupShell = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>popupctl</title></head>
<body>
<pre id="log">popupctl surface</pre>
<script>
const params = new URLSearchParams(window.location.search);
const surface = params.get("surface");
const logEl = document.getElementById("log");
const say = (line) => { logEl.textContent += "\n" + line; };

async function post(msg) {
  await fetch("/surfaces/" + surface + "/inbox", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify(msg),
  });
}

async function poll() {
  try {
    const res = await fetch("/surfaces/" + surface + "/outbox");
    if (res.status === 410) { window.close(); return; }
    const body = await res.json();
    for (const msg of body.messages || []) {
      if (msg.type === "popup.bridge.focus") { window.focus(); continue; }
      say("recv " + msg.type);
    }
  } catch (err) {
    say("poll error: " + err);
  }
  setTimeout(poll, 250);
}

// Readiness signal: first round of the init handshake.
post({type: "popup.init"}).then(() => say("init sent"));
poll();
</script>
</body>
</html>
`

const permissionsShell = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>popupctl permissions</title></head>
<body><p>Grant device permissions in the browser prompt, then close this page.</p></body>
</html>
`
