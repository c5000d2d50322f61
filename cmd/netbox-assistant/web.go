// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gebl/netbox-assistant/internal/format"
	"github.com/gebl/netbox-assistant/internal/logging"
)

const maxChatRequestBytes = 64 << 10

// answerer is the part of *bot.App the web surface needs.
type answerer interface {
	Answer(ctx context.Context, message string) string
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
	HTML  string `json:"html"`
}

// newWebHandler serves the chat page, the chat API and a health check.
func newWebHandler(app answerer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(chatPage))
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatRequestBytes)).Decode(&req); err != nil {
			http.Error(w, "request body must be JSON with a 'message' field", http.StatusBadRequest)
			return
		}

		reply := app.Answer(r.Context(), strings.TrimSpace(req.Message))
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(chatResponse{Reply: reply, HTML: format.HTML(reply)}); err != nil {
			logging.WebLogger.Warn("Failed to write chat response", "error", err)
		}
	})

	return mux
}

const chatPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>NetBox Assistant</title>
<style>
body { font-family: sans-serif; max-width: 50rem; margin: 2rem auto; }
#log div { margin: .5rem 0; padding: .5rem; border-radius: .3rem; }
.user { background: #eef; }
.bot { background: #f4f4f4; }
form { display: flex; gap: .5rem; }
input { flex: 1; padding: .4rem; }
</style>
</head>
<body>
<h1>NetBox Assistant</h1>
<p>Ask anything about your network infrastructure.</p>
<div id="log"></div>
<form id="chat">
<input id="message" autocomplete="off" placeholder="e.g. list the devices at HQ">
<button>Send</button>
</form>
<script>
const log = document.getElementById("log");
function add(cls, html) {
  const div = document.createElement("div");
  div.className = cls;
  div.innerHTML = html;
  log.appendChild(div);
}
document.getElementById("chat").addEventListener("submit", async (e) => {
  e.preventDefault();
  const input = document.getElementById("message");
  const message = input.value;
  input.value = "";
  const mine = document.createElement("div");
  mine.className = "user";
  mine.textContent = message;
  log.appendChild(mine);
  try {
    const resp = await fetch("/api/chat", {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify({message}),
    });
    const data = await resp.json();
    add("bot", data.html);
  } catch (err) {
    add("bot", "Request failed");
  }
});
</script>
</body>
</html>
`
