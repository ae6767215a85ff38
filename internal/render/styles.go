package render

const (
	EarlyStyleID = "dbd-early-hide"
	StyleID      = "dbd-styles"
	ScriptID     = "dbd-toggle"
)

// EarlyStyle hides unprocessed cards once data is ready, so the host's original card
// never flashes before its replacement lands.
const EarlyStyle = `html.dbd-data-ready [class~="@container/match-card"]:not([data-dbd-processed="true"]) {
  visibility: hidden;
}`

// Style is the full stylesheet for transformed cards
const Style = `.dbd-table-mode {
  display: block;
  width: 100%;
  padding: 8px 12px;
  border-radius: 8px;
  cursor: pointer;
  background: rgba(20, 20, 24, 0.9);
}
.dbd-killer-match { border-left: 4px solid #b3261e; }
.dbd-survivor-match { border-left: 4px solid #2e7d32; }
.dbd-table-mode[data-dbd-expanded="false"] .dbd-opponent-row,
.dbd-table-mode[data-dbd-expanded="false"] thead { display: none; }
.dbd-match-table { width: 100%; border-collapse: collapse; font-size: 13px; }
.dbd-match-table th { text-align: center; font-weight: 600; opacity: 0.7; padding: 4px; }
.dbd-match-table td { text-align: center; padding: 4px; }
.dbd-user-row { background: rgba(255, 255, 255, 0.06); }
.dbd-char-container { position: relative; width: 48px; height: 48px; }
.dbd-char-bg, .dbd-char-icon-wrapper { position: absolute; inset: 0; }
.dbd-char-bg { width: 100%; height: 100%; object-fit: cover; }
.dbd-char-icon { width: 100%; height: 100%; }
.dbd-status-icon-overlay { position: absolute; right: -4px; bottom: -4px; width: 20px; height: 20px; }
.dbd-loadout-container { display: flex; align-items: center; gap: 6px; }
.dbd-loadout-group { display: flex; align-items: center; gap: 2px; }
.dbd-loadout-divider { width: 1px; height: 32px; background: rgba(255, 255, 255, 0.2); }
.dbd-loadout-addons { display: flex; flex-direction: column; gap: 2px; }
.dbd-loadout-plus { opacity: 0.6; padding: 0 2px; }
.dbd-loadout-item { position: relative; cursor: default; }
.dbd-loadout-bg { position: absolute; inset: 0; background-size: cover; }
.dbd-loadout-icon-container { position: relative; }
.dbd-loadout-icon { width: 100%; height: 100%; }
.dbd-loadout-empty { opacity: 0.35; }
.dbd-stat-low { color: #e57373; }
.dbd-bp-cell { font-weight: 600; }
.dbd-bph-cell { font-variant-numeric: tabular-nums; }`

// Script flips a transformed card's display state on click. Clicks inside a loadout icon
// are ignored.
const Script = `document.addEventListener("click", function (e) {
  if (e.target.closest(".dbd-loadout-item")) return;
  var card = e.target.closest('[data-dbd-processed="true"]');
  if (!card) return;
  var expanded = card.getAttribute("data-dbd-expanded") === "true";
  card.setAttribute("data-dbd-expanded", expanded ? "false" : "true");
});`
