package shell

// BashPlugin prefixes PS1 with "● REC" while a recording is in progress.
const BashPlugin = `# screenrec prompt plugin, auto-generated, do not edit manually
# Source this file from your ~/.bashrc:
#   source ~/.config/screenrec/screenrec.plugin.bash

_screenrec_session_file="${XDG_DATA_HOME:-$HOME/.local/share}/screenrec/session.json"
_screenrec_ps1="$PS1"

_screenrec_prompt() {
  if [[ -f "$_screenrec_session_file" ]] && grep -q '"state":"recording"' "$_screenrec_session_file" 2>/dev/null; then
    PS1="\[\e[31m\]● REC\[\e[0m\] $_screenrec_ps1"
  else
    PS1="$_screenrec_ps1"
  fi
}

PROMPT_COMMAND="_screenrec_prompt${PROMPT_COMMAND:+;$PROMPT_COMMAND}"
`
