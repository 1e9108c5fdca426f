package navigator

// HelpMarkdown is the command reference shown by help.
const HelpMarkdown = `# Commands

| Command | Alias | Effect |
|---|---|---|
| ` + "`apps`" + ` | | list running applications |
| ` + "`open <pid>`" + ` | | load a fresh tree for the application |
| ` + "`<n>`" + `, ` + "`select <n>`" + ` | ` + "`s`" + ` | select entry n of the list |
| ` + "`parent`" + ` | ` + "`up`" + `, ` + "`..`" + ` | select the parent |
| ` + "`expand`" + ` | ` + "`e`" + ` | load and show the selection's children |
| ` + "`collapse`" + ` | | hide the selection's children |
| ` + "`actions`" + ` | | list the selection's actions |
| ` + "`execute <n>`" + ` | ` + "`x`" + ` | perform action n on the selection |
| ` + "`attrs`" + ` | | show the selection's attributes |
| ` + "`refresh`" + ` | | re-read the selection from the application |
| ` + "`goto <path>`" + ` | | select the element at role[title]/role[title] |
| ` + "`find role <text>`" + ` | | list elements with that role |
| ` + "`find title <text>`" + ` | | list elements with that title |
| ` + "`help`" + ` | ` + "`?`" + ` | show this table |
| ` + "`quit`" + ` | ` + "`q`" + `, ` + "`exit`" + ` | end the session |

The list always starts with the application root, followed by the
selection's siblings and then its children.
`
